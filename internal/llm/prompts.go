package llm

import (
	"fmt"
	"strings"

	"github.com/noah-isme/lakgs-api/internal/models"
)

const systemTutor = `你是一名高中历史教师，回答学生关于教材内容的问题。
回答要准确、简洁，必要时给出时间、人物和因果关系。不确定的内容要明确说明。`

func promptGradeEssay(question, answer, reference string) (system string, user string) {
	system = `你是一名严格而耐心的高中历史阅卷老师。请按以下结构用 Markdown 输出批改结果：
## 总分：<0-100 的整数>
## 史实准确性
## 论证逻辑
## 史料运用
## 改进建议
第一行必须是总分，只写一个整数。`
	var b strings.Builder
	b.WriteString("题目：\n" + question + "\n\n学生答案：\n" + answer)
	if strings.TrimSpace(reference) != "" {
		b.WriteString("\n\n参考答案：\n" + reference)
	}
	return system, b.String()
}

var typeNames = map[models.QuestionType]string{
	models.QuestionSingleChoice:   "单项选择题",
	models.QuestionMultipleChoice: "多项选择题",
	models.QuestionMaterial:       "材料分析题",
}

func promptGenerateQuestions(req QuestionRequest, strict bool, lastErr error) (system string, user string) {
	system = `你是高中历史命题专家。只输出一个 JSON 数组，不要输出其他文字。
每个元素包含字段 question, options, answer, explanation, difficulty, type。
选择题的 options 是键为 A、B、C、D 的对象；单选题 answer 为一个大写字母，多选题 answer 为 2 到 4 个大写字母。
材料分析题不要 options 字段，answer 为完整的文字答案。`
	if strict {
		system += fmt.Sprintf(`
上一次输出无法通过校验（%v）。这一次必须严格遵守格式：
只输出以 [ 开头、以 ] 结尾的 JSON 数组，字段齐全，type 必须为 "%s"，difficulty 必须为 "%s"。`, lastErr, req.Type, req.Difficulty)
	}
	user = fmt.Sprintf("请围绕以下知识点出 %d 道%s，难度 %s，type 字段写 \"%s\"：\n%s",
		req.Count, typeNames[req.Type], req.Difficulty, req.Type, strings.Join(req.Topics, "、"))
	return system, user
}

var levelGuides = map[models.ExplainLevel]string{
	models.ExplainSimple:   "用通俗的语言简要说明，控制在 200 字以内。",
	models.ExplainDetailed: "分背景、经过、影响三部分详细讲解。",
	models.ExplainAdvanced: "在详细讲解的基础上补充史学观点和不同评价，并指出易错点。",
}

func promptExplain(topic string, level models.ExplainLevel) (system string, user string) {
	guide, ok := levelGuides[level]
	if !ok {
		guide = levelGuides[models.ExplainDetailed]
	}
	system = systemTutor + "\n请用 Markdown 输出。" + guide
	user = "请讲解：" + topic
	return system, user
}

func promptSummariseReplies(question string, replies []models.Reply) (system string, user string) {
	system = `你是课堂助教。请总结学生对课堂问题的回答：
1. 归纳主要观点并标注大致人数；
2. 指出常见错误或误解；
3. 给出教师可以追问的一个问题。
用 Markdown 输出，不要逐条复述原文。`
	var b strings.Builder
	b.WriteString("课堂问题：\n" + question + "\n\n学生回答：\n")
	for i, r := range replies {
		name := r.StudentName
		if name == "" {
			name = r.StudentID
		}
		fmt.Fprintf(&b, "%d. %s：%s\n", i+1, name, r.Content)
	}
	return system, b.String()
}

const systemReport = `你是教学数据分析师。根据给出的学习活动统计和教材内容，撰写一份 Markdown 学情报告，
包含：概况、主要发现、薄弱环节、教学建议。数据不足时如实说明，不要编造数字。`
