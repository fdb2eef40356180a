package ai

import "strings"

// TopicPlaceholder is replaced by the row's topic when a prompt is rendered.
const TopicPlaceholder = "{topic}"

// DefaultPromptTemplate asks for a ~30s TikTok script in Japanese and an English
// video-generation prompt, separated by the response delimiter.
const DefaultPromptTemplate = "テーマ「{topic}」について、TikTok用の30秒程度の面白い台本を作成してください。" +
	"また、その内容に最適な動画を生成するための詳細な英語プロンプトも作成してください。" +
	"出力形式は必ず『台本 ### 英語プロンプト』としてください。" +
	"Output format: <Japanese script> ### <English video prompt>. Use the ### delimiter exactly once."

// RenderPrompt interpolates topic into template. An empty template selects DefaultPromptTemplate.
func RenderPrompt(template, topic string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	return strings.ReplaceAll(template, TopicPlaceholder, topic)
}
