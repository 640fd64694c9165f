package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the keyword configuration driving query normalization and the
// domain-relevance gate. It is data, not code, so operators can extend the
// topic list without touching control flow.
type Taxonomy struct {
	FillerPatterns  []string     `yaml:"filler_patterns"`
	TopicGroups     []TopicGroup `yaml:"topic_groups"`
	TechKeywords    []string     `yaml:"tech_keywords"`
	NonTechKeywords []string     `yaml:"non_tech_keywords"`
}

// TopicGroup maps a set of phrasing variants onto one canonical cache key.
// Group order encodes topic priority: the first group with a match wins.
type TopicGroup struct {
	Key      string `yaml:"key"`
	Patterns string `yaml:"patterns"`
}

func LoadTaxonomy() (*Taxonomy, error) {
	path := os.Getenv("TAXONOMY_CONFIG_PATH")
	if path == "" {
		path = "configs/taxonomy.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (t *Taxonomy) Validate() error {
	if len(t.TopicGroups) == 0 {
		return fmt.Errorf("taxonomy has no topic groups")
	}
	for i, g := range t.TopicGroups {
		if g.Key == "" {
			return fmt.Errorf("topic group %d has empty key", i)
		}
		if g.Patterns == "" {
			return fmt.Errorf("topic group %q has empty patterns", g.Key)
		}
	}
	return nil
}

// DefaultTaxonomy returns the compiled-in taxonomy, used when no YAML file
// is deployed alongside the binary.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		FillerPatterns: []string{
			// degree adverbs
			"很|非常|特别|超级|极其|相当|挺|比较|稍微|略微|确实|真的|其实",
			// interjections and particles
			"哈哈|嘿嘿|呵呵|哎呀|哇|哦|嗯|啊|吧|嘛|呢|呀|咯|喽",
			// filler conjunctions
			"就是|也就是|那个|这个|某些|某种|一些",
			// English fillers
			`\b(please|really|very|just|maybe|actually|i want to|i need|help me)\b`,
			// punctuation
			`[，。！？、,.!?;；:：]`,
			// whitespace
			`\s+`,
		},
		TopicGroups: []TopicGroup{
			{Key: "写日记", Patterns: "写日记|日记|笔记|记录|journal|diary|note"},
			{Key: "替代", Patterns: "替代|代替|替换|alternative"},
			{Key: "数据库", Patterns: "数据库|mysql|redis|mongodb|postgresql|database"},
			{Key: "编辑", Patterns: "编辑|修改|改写|editor"},
			{Key: "监控", Patterns: "监控|zabbix|prometheus|grafana|monitoring"},
			{Key: "容器", Patterns: "容器|docker|k8s|kubernetes|container"},
			{Key: "开发", Patterns: "开发|编程|代码|ide|coding|programming"},
			{Key: "图片处理", Patterns: "图片|图像|ps|photoshop|image"},
			{Key: "视频剪辑", Patterns: "视频|剪辑|video"},
			{Key: "办公", Patterns: "文档|word|excel|ppt|office"},
			{Key: "工具", Patterns: "管理|系统|工具|软件|平台|tool|software|platform"},
		},
		TechKeywords: []string{
			"软件", "工具", "系统", "平台", "应用", "服务", "数据库", "开发", "编程",
			"管理", "监控", "服务器", "容器", "云", "网络", "安全", "测试",
			"框架", "库", "api", "web", "前端", "后端", "算法", "数据", "运维",
			"linux", "windows", "mac", "docker", "kubernetes", "mysql", "redis", "nginx",
			"git", "代码", "部署", "ci/cd", "devops", "微服务",
			"software", "tool", "system", "platform", "app", "service", "database",
			"development", "programming", "coding", "server", "container", "cloud",
			"security", "testing", "framework", "library", "network",
		},
		NonTechKeywords: []string{
			"补贴", "申报", "农户", "农产品", "农业", "农村", "扶贫", "种粮",
			"农机", "政策", "政府", "政务", "办事", "审批", "证照", "执照",
			"社保", "医保", "公积金", "户籍", "身份证", "护照", "签证",
			"房产", "购房", "贷款", "抵押", "理财", "保险", "证券", "股票",
			"subsidy", "agriculture", "farming", "rural", "policy", "government",
			"approval", "license", "insurance", "loan", "real estate",
		},
	}
}
