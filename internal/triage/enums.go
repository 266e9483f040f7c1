// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package triage implements the routing and escalation decision engine for
// inbound support queries. It turns a normalized classifier result into a
// committed department, priority, SLA and escalation outcome, and decides
// whether a knowledge article alone can resolve the request or a ticket is
// required.
package triage

import "fmt"

// Department identifies a target department for a support request.
type Department string

const (
	DepartmentIT              Department = "IT"
	DepartmentHR              Department = "HR"
	DepartmentRegistrar       Department = "REGISTRAR"
	DepartmentFinancialAid    Department = "FINANCIAL_AID"
	DepartmentFacilities      Department = "FACILITIES"
	DepartmentStudentAffairs  Department = "STUDENT_AFFAIRS"
	DepartmentCampusSafety    Department = "CAMPUS_SAFETY"
	DepartmentEscalateToHuman Department = "ESCALATE_TO_HUMAN"
)

// Departments lists every routable department in a stable order.
func Departments() []Department {
	return []Department{
		DepartmentIT,
		DepartmentHR,
		DepartmentRegistrar,
		DepartmentFinancialAid,
		DepartmentFacilities,
		DepartmentStudentAffairs,
		DepartmentCampusSafety,
		DepartmentEscalateToHuman,
	}
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	switch d {
	case DepartmentIT, DepartmentHR, DepartmentRegistrar, DepartmentFinancialAid,
		DepartmentFacilities, DepartmentStudentAffairs, DepartmentCampusSafety,
		DepartmentEscalateToHuman:
		return true
	}
	return false
}

// TicketCode returns the 2-3 letter department code used in ticket IDs.
func (d Department) TicketCode() string {
	switch d {
	case DepartmentIT:
		return "IT"
	case DepartmentHR:
		return "HR"
	case DepartmentRegistrar:
		return "REG"
	case DepartmentFinancialAid:
		return "FIN"
	case DepartmentFacilities:
		return "FAC"
	case DepartmentStudentAffairs:
		return "STU"
	case DepartmentCampusSafety:
		return "SAF"
	case DepartmentEscalateToHuman:
		return "ESC"
	default:
		return "GEN"
	}
}

// DisplayName returns the human-facing department name used in responses.
func (d Department) DisplayName() string {
	switch d {
	case DepartmentIT:
		return "IT Support"
	case DepartmentHR:
		return "Human Resources"
	case DepartmentRegistrar:
		return "the Registrar's Office"
	case DepartmentFinancialAid:
		return "Financial Aid"
	case DepartmentFacilities:
		return "Facilities Management"
	case DepartmentStudentAffairs:
		return "Student Affairs"
	case DepartmentCampusSafety:
		return "Campus Safety"
	case DepartmentEscalateToHuman:
		return "a human support specialist"
	default:
		return string(d)
	}
}

// Priority is the urgency level of a support request. Levels are totally
// ordered: Low < Medium < High < Urgent.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank returns the position of p in the urgency order, Low being 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

// Sentiment is the classifier-detected tone of the user's message.
type Sentiment string

const (
	SentimentNeutral    Sentiment = "NEUTRAL"
	SentimentFrustrated Sentiment = "FRUSTRATED"
	SentimentUrgent     Sentiment = "URGENT"
	SentimentSatisfied  Sentiment = "SATISFIED"
)

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentNeutral, SentimentFrustrated, SentimentUrgent, SentimentSatisfied:
		return true
	}
	return false
}

// IntentCategory groups detected intents for routing purposes.
type IntentCategory string

const (
	CategoryAccountAccess   IntentCategory = "ACCOUNT_ACCESS"
	CategoryAcademicRecords IntentCategory = "ACADEMIC_RECORDS"
	CategoryFinancial       IntentCategory = "FINANCIAL"
	CategoryFacilities      IntentCategory = "FACILITIES"
	CategoryEnrollment      IntentCategory = "ENROLLMENT"
	CategoryStudentServices IntentCategory = "STUDENT_SERVICES"
	CategoryPolicyException IntentCategory = "POLICY_EXCEPTION"
	CategoryGeneralInquiry  IntentCategory = "GENERAL_INQUIRY"
	CategoryStatusCheck     IntentCategory = "STATUS_CHECK"
	CategoryHumanRequest    IntentCategory = "HUMAN_REQUEST"
)

// Valid reports whether c is a known intent category.
func (c IntentCategory) Valid() bool {
	switch c {
	case CategoryAccountAccess, CategoryAcademicRecords, CategoryFinancial,
		CategoryFacilities, CategoryEnrollment, CategoryStudentServices,
		CategoryPolicyException, CategoryGeneralInquiry, CategoryStatusCheck,
		CategoryHumanRequest:
		return true
	}
	return false
}

// EscalationReason explains why a request was escalated to human review.
type EscalationReason string

const (
	ReasonConfidenceTooLow          EscalationReason = "confidence_too_low"
	ReasonPolicyKeyword             EscalationReason = "policy_keyword_detected"
	ReasonSensitiveTopic            EscalationReason = "sensitive_topic"
	ReasonMultiDepartment           EscalationReason = "multi_department"
	ReasonUserRequestedHuman        EscalationReason = "user_requested_human"
	ReasonMaxClarificationsExceeded EscalationReason = "max_clarifications_exceeded"
)

// Valid reports whether r is a known escalation reason.
func (r EscalationReason) Valid() bool {
	switch r {
	case ReasonConfidenceTooLow, ReasonPolicyKeyword, ReasonSensitiveTopic,
		ReasonMultiDepartment, ReasonUserRequestedHuman, ReasonMaxClarificationsExceeded:
		return true
	}
	return false
}

// OutcomeStatus is the final status of a processed turn. Exactly one status
// holds per interaction.
type OutcomeStatus string

const (
	StatusCreated              OutcomeStatus = "created"
	StatusEscalated            OutcomeStatus = "escalated"
	StatusPendingClarification OutcomeStatus = "pending_clarification"
	StatusKBOnly               OutcomeStatus = "kb_only"
	StatusError                OutcomeStatus = "error"
)

// Valid reports whether s is a known outcome status.
func (s OutcomeStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusEscalated, StatusPendingClarification, StatusKBOnly, StatusError:
		return true
	}
	return false
}

// TicketStatus is the lifecycle status of a support ticket.
type TicketStatus string

const (
	TicketOpen        TicketStatus = "open"
	TicketInProgress  TicketStatus = "in_progress"
	TicketPendingInfo TicketStatus = "pending_info"
	TicketResolved    TicketStatus = "resolved"
	TicketClosed      TicketStatus = "closed"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketPendingInfo, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// ParseTicketStatus converts a wire string into a TicketStatus.
func ParseTicketStatus(s string) (TicketStatus, error) {
	st := TicketStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown ticket status %q", s)
	}
	return st, nil
}

// ParseDepartment converts a wire string into a Department.
func ParseDepartment(s string) (Department, error) {
	d := Department(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown department %q", s)
	}
	return d, nil
}
