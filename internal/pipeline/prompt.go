package pipeline

import (
	"fmt"
	"strings"

	"healthqa/internal/grading"
)

// systemPrompt mandates grounded answering: only the supplied passages may
// be used, uncovered topics must be flagged, no specific prescription drug
// may be recommended, and evidence numbers must be cited.
const systemPrompt = `你是一位专业的健康咨询助手。你的任务是基于用户问题和提供的参考资料，生成准确、有帮助的健康建议。

重要规则：
1. 你必须严格基于提供的参考资料回答，不得编造信息。
2. 如果参考资料不足以回答某方面，请明确说明"根据现有资料无法确定"。
3. 对于用药建议，务必提醒用户咨询医生，不可推荐具体处方药。
4. 回答要清晰、结构合理，适当分段。
5. 在回答末尾，引用你使用的证据来源（对应参考资料编号）。`

const userPromptFormat = `## 用户问题
%s

## 参考资料（请基于以下内容回答，并注明引用来源编号）
%s

请根据上述参考资料，为用户提供专业、负责任的健康建议。`

// BuildPrompt assembles the generation prompt: the resolved query plus each
// passage numbered in retrieval order, tagged with its credibility label
// and source name.
func BuildPrompt(query string, evidences []grading.Graded) (system, user string) {
	var b strings.Builder
	for i, ev := range evidences {
		fmt.Fprintf(&b, "[%d] [证据等级: Level %d - %s]\n来源: %s\n%s\n\n",
			i+1, ev.Level, ev.Level, ev.Passage.SourceName, ev.Passage.Content)
	}
	return systemPrompt, fmt.Sprintf(userPromptFormat, query, strings.TrimSpace(b.String()))
}
