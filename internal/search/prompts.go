package search

import (
	"strings"

	"github.com/opentoolhub/search-agent/internal/models"
)

// Prompt templates are deliberately terse; user input is capped upstream and
// the templates fix the output schema, which keeps token spend per call
// predictable.

const searchPromptZH = `你是开源软件工具检索助手。返回JSON格式：
{
  "searchIntent": "精确查询",
  "originalQuery": "{userInput}",
  "resultCount": 1,
  "searchTime": "0.3秒",
  "results": [{
    "name": "工具名",
    "category": "分类",
    "coreUsage": "核心用途简述",
    "corePositioning": "定位",
    "installation": {
      "ubuntu": "命令",
      "centos": "命令",
      "docker": "命令",
      "macos": "命令"
    },
    "downloadUrl": {
      "mirror": "国内镜像链接",
      "official": "官方链接"
    },
    "commonIssues": [{"rank": 1, "problem": "问题", "solution": "解决方案"}],
    "commonCommands": [{"command": "命令", "description": "说明"}],
    "rating": 5,
    "applicableScenarios": "场景"
  }],
  "relatedTools": [{"name": "相关工具", "category": "分类", "reason": "理由"}]
}

只输出JSON，不要其他文字。所有字段必须有实际内容。`

const searchPromptEN = `You are an open source software tool search assistant. Return JSON format:
{
  "searchIntent": "Precise Query",
  "originalQuery": "{userInput}",
  "resultCount": 1,
  "searchTime": "0.3s",
  "results": [{
    "name": "Tool Name",
    "category": "Category",
    "coreUsage": "Brief core usage description",
    "corePositioning": "Positioning",
    "installation": {
      "ubuntu": "Command",
      "centos": "Command",
      "docker": "Command",
      "macos": "Command"
    },
    "downloadUrl": {
      "mirror": "Mirror Link",
      "official": "Official Link"
    },
    "commonIssues": [{"rank": 1, "problem": "Problem", "solution": "Solution"}],
    "commonCommands": [{"command": "Command", "description": "Description"}],
    "rating": 5,
    "applicableScenarios": "Scenarios"
  }],
  "relatedTools": [{"name": "Related Tool", "category": "Category", "reason": "Reason"}]
}

Output JSON only, no other text. All fields must have actual content.`

const recommendPrompt = `你是开源软件工具推荐助手。返回JSON格式：
{
  "personalizedTop5": [{
    "name": "工具名", "category": "分类", "coreUsage": "用途", "quickStart": "安装命令", "rating": 5, "applicableScenarios": "场景", "updateDate": "日期"
  }],
  "popularTop3": [{
    "name": "工具名", "category": "分类", "coreUsage": "用途", "quickStart": "安装命令", "rating": 5, "applicableScenarios": "场景", "updateDate": "日期"
  }],
  "nicheTop2": [{
    "name": "工具名", "category": "分类", "coreUsage": "用途", "quickStart": "安装命令", "rating": 5, "applicableScenarios": "场景", "painPointDescription": "痛点", "updateDate": "日期"
  }]
}

只输出JSON，推荐5个个性化工具、3个热门工具、2个小众工具。`

func buildSearchPrompt(language models.Language, userInput string) string {
	tmpl := searchPromptZH
	if language == models.LanguageEN {
		tmpl = searchPromptEN
	}
	return strings.ReplaceAll(tmpl, "{userInput}", userInput)
}
