// Package usecase contains the interview orchestration services.
package usecase

import (
	"fmt"
	"strings"

	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/pkg/answertext"
)

// Max completion tokens per operation.
const (
	questionMaxTokens   = 512
	evaluationMaxTokens = 1024
	reportMaxTokens     = 2048
)

// BuildPersona produces the interviewer system prompt for a session. It is
// deterministic over the config so retried calls send identical prompts.
func BuildPersona(cfg domain.InterviewConfig) string {
	var b strings.Builder
	b.WriteString("You are a professional ")
	switch cfg.Type {
	case domain.InterviewBehavioral:
		b.WriteString("behavioral interviewer")
	case domain.InterviewHR:
		b.WriteString("HR interviewer")
	default:
		b.WriteString("technical interviewer")
	}
	fmt.Fprintf(&b, " conducting a mock interview for the role of %s.", cfg.Role)

	switch cfg.Level {
	case domain.LevelFresh:
		b.WriteString(" The candidate is a fresher; calibrate questions to fundamentals and learning potential.")
	case domain.LevelSenior:
		b.WriteString(" The candidate is senior; demand depth, trade-off reasoning, and real production experience.")
	default:
		b.WriteString(" The candidate is mid-level; expect hands-on experience and practical judgment.")
	}

	if len(cfg.Skills) > 0 {
		fmt.Fprintf(&b, " Declared skills: %s.", strings.Join(cfg.Skills, ", "))
	}
	if cfg.CandidateName != "" {
		fmt.Fprintf(&b, " Address the candidate as %s.", cfg.CandidateName)
	}
	if cfg.Resume != "" {
		resume := cfg.Resume
		if len(resume) > 1500 {
			resume = resume[:1500]
		}
		fmt.Fprintf(&b, "\n\nCandidate background:\n%s", resume)
	}

	b.WriteString("\n\nRules: ask exactly one question at a time. Stay within the role, interview type, and experience level. Be specific and professional. Always respond with valid JSON only.")
	return b.String()
}

// forbiddenFillers are generic openers the first question must avoid.
var forbiddenFillers = []string{
	"Tell me about yourself",
	"Walk me through your resume",
	"Why do you want this job",
	"Where do you see yourself in five years",
	"What are your strengths and weaknesses",
}

func buildFirstQuestionPrompt(cfg domain.InterviewConfig, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate the opening interview question. Mandatory topic: %q.\n", topic)
	b.WriteString("Do NOT ask generic filler questions such as: ")
	b.WriteString(strings.Join(forbiddenFillers, "; "))
	b.WriteString(".\n")
	fmt.Fprintf(&b, "The question must probe %q concretely at the %s level for a %s interview.\n", topic, cfg.Level, cfg.Type)
	b.WriteString(`Respond with a JSON object: {"question": "...", "topic": "...", "intent": "..."}`)
	return b.String()
}

func buildFollowUpPrompt(cfg domain.InterviewConfig, topic, lastAnswer string, depth answertext.DepthAnalysis, concepts []string) string {
	var b strings.Builder
	b.WriteString("Generate the next interview question as a bridge from the candidate's previous answer.\n")
	answer := lastAnswer
	if len(answer) > 800 {
		answer = answer[:800]
	}
	fmt.Fprintf(&b, "Previous answer (depth: %s): %q\n", depth.Level, answer)
	if len(concepts) > 0 {
		fmt.Fprintf(&b, "Concepts the candidate mentioned: %s.\n", strings.Join(concepts, ", "))
	}
	b.WriteString("Requirements:\n")
	b.WriteString("1. Briefly acknowledge one specific detail from the previous answer.\n")
	fmt.Fprintf(&b, "2. Pivot to the mandatory new topic: %q. The question must be about this topic, not the previous one.\n", topic)
	fmt.Fprintf(&b, "3. Stay within the %s interview for a %s-level %s.\n", cfg.Type, cfg.Level, cfg.Role)
	b.WriteString(`Respond with a JSON object: {"question": "...", "topic": "...", "intent": "..."}`)
	return b.String()
}

func buildElaborationPrompt(cfg domain.InterviewConfig, question string) string {
	var b strings.Builder
	b.WriteString("The candidate gave a very short or unclear answer. Rephrase the question below to be more specific and easier to approach, with an encouraging tone. Do not change the underlying topic.\n")
	fmt.Fprintf(&b, "Question: %q\n", question)
	fmt.Fprintf(&b, "Keep it appropriate for a %s-level %s in a %s interview.\n", cfg.Level, cfg.Role, cfg.Type)
	b.WriteString(`Respond with a JSON object: {"question": "..."}`)
	return b.String()
}

func buildRubricPrompt(cfg domain.InterviewConfig, topic, question, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the candidate's answer. Expected topic: %q.\n", topic)
	fmt.Fprintf(&b, "Question: %q\n", question)
	fmt.Fprintf(&b, "Answer: %q\n", answer)
	b.WriteString("Score each rubric dimension 0-100: completeness (weight 25%), technical_accuracy (weight 30%), depth (weight 25%), clarity (weight 20%).\n")
	switch cfg.Level {
	case domain.LevelFresh:
		b.WriteString("Grading guidance: the candidate is a fresher; be lenient about missing production examples and reward conceptual understanding.\n")
	case domain.LevelSenior:
		b.WriteString("Grading guidance: the candidate is senior; demand depth and trade-off analysis, penalize shallow or purely theoretical answers.\n")
	default:
		b.WriteString("Grading guidance: the candidate is mid-level; expect practical examples alongside correct concepts.\n")
	}
	if cfg.Type != domain.InterviewTechnical {
		fmt.Fprintf(&b, "This is a %s interview: weigh structure, self-awareness, and communication over technical trivia.\n", cfg.Type)
	}
	b.WriteString(`Respond with a JSON object: {"score": 0-100, "breakdown": {"completeness": 0-100, "technical_accuracy": 0-100, "depth": 0-100, "clarity": 0-100}, "feedback": "...", "strengths": ["..."], "improvements": ["..."]}`)
	return b.String()
}

func buildReportPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("The interview is complete. Produce a final report from the transcript below.\n\n")
	b.WriteString(transcript)
	b.WriteString("\n\nRespond with a JSON object: ")
	b.WriteString(`{"overall_score": 0-100, "category_scores": {"communication": 0-100, "clarity": 0-100, "technical_depth": 0-100, "confidence": 0-100}, "strengths": ["..."], "improvements": ["..."], "actionable_feedback": ["..."], "question_answer_history": [{"question": "...", "answer_summary": "...", "score": 0-100}]}`)
	return b.String()
}
