// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/campushq/frontdoor/internal/triage"
)

// intentDescriptions maps intent ids to the phrasing used in clarification
// questions.
var intentDescriptions = map[string]string{
	"password_reset":          "password reset for a university system",
	"login_issues":            "login problems with your account",
	"financial_aid_inquiry":   "financial aid or scholarships",
	"tuition_payment":         "tuition payments or billing",
	"transcript_request":      "requesting academic transcripts",
	"enrollment_verification": "enrollment verification letters",
	"facilities_issue":        "facilities or maintenance issues",
	"course_enrollment":       "course registration",
	"general_question":        "general university information",
}

// GenerateClarification drafts a follow-up question naming up to three
// candidate interpretations.
func (c *PatternClassifier) GenerateClarification(_ context.Context, _ string, candidates []string) (string, error) {
	var options []string
	for _, intent := range candidates {
		if len(options) == 3 {
			break
		}
		desc, ok := intentDescriptions[intent]
		if !ok {
			desc = strings.ReplaceAll(intent, "_", " ")
		}
		options = append(options, desc)
	}

	switch len(options) {
	case 0:
		return "Could you tell me a bit more about what you need help with?", nil
	case 1:
		return fmt.Sprintf("Just to clarify, are you asking about %s?", options[0]), nil
	case 2:
		return fmt.Sprintf("I want to make sure I understand. Are you asking about %s or %s?", options[0], options[1]), nil
	default:
		return fmt.Sprintf("I want to help you with the right issue. Are you asking about %s, %s, or %s?", options[0], options[1], options[2]), nil
	}
}

// GenerateResponse drafts the user-facing reply. The caller supplies the
// facts (ticket id, department, SLA, escalation); this only chooses wording
// and folds in self-service content from the top knowledge article.
func (c *PatternClassifier) GenerateResponse(_ context.Context, req triage.ResponseRequest) (string, error) {
	deptName := req.Department.DisplayName()

	selfService := ""
	if len(req.Contents) > 0 {
		content := req.Contents[0].Content
		if content == "" {
			content = req.Contents[0].Snippet
		}
		if content != "" {
			selfService = "\n\nHere's how you can resolve this:\n" + content
		}
	}

	if req.Escalated {
		return fmt.Sprintf(
			"I've forwarded your request to %s for personal attention. "+
				"A team member will reach out to you within %s. "+
				"Your reference number is %s.",
			deptName, strings.TrimPrefix(req.SLAText, "within "), req.TicketID), nil
	}

	if req.TicketID != "" {
		base := fmt.Sprintf(
			"I've created a support ticket (%s) and routed it to %s. "+
				"You can expect a response %s.",
			req.TicketID, deptName, req.SLAText)
		if selfService != "" {
			return base + selfService + "\n\nLet me know if you need additional assistance.", nil
		}
		return base + " Is there anything else I can help you with?", nil
	}

	if selfService != "" {
		return fmt.Sprintf("I've found some helpful information from %s.%s\n\nLet me know if you need additional assistance.",
			deptName, selfService), nil
	}

	return fmt.Sprintf("I've found some helpful information from %s. "+
		"Please review the articles below. Let me know if you need additional assistance.", deptName), nil
}
