package association

// Kind discriminates the four association families. Each kind is its own
// table and its own Go type; Kind exists for routing (URLs, events, audit),
// never as a polymorphic storage tag.
type Kind string

const (
	KindPersonCase   Kind = "PERSON_CASE"
	KindPersonReport Kind = "PERSON_REPORT"
	KindCaseCase     Kind = "CASE_CASE"
	KindPersonPerson Kind = "PERSON_PERSON"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindPersonCase, KindPersonReport, KindCaseCase, KindPersonPerson:
		return true
	}
	return false
}

type Label string

const (
	// Evidentiary labels. Permanent record of how a person figures in a
	// case or report; they carry a status and are never time-bounded.
	LabelReporter Label = "REPORTER"
	LabelSubject  Label = "SUBJECT"
	LabelWitness  Label = "WITNESS"

	// Role labels. Staffing assignments with a validity window.
	LabelInvestigator Label = "INVESTIGATOR"
	LabelLegalCounsel Label = "LEGAL_COUNSEL"

	// Case-to-case labels, directional from subject case to object case.
	LabelParent     Label = "PARENT"
	LabelChild      Label = "CHILD"
	LabelSplitFrom  Label = "SPLIT_FROM"
	LabelSplitTo    Label = "SPLIT_TO"
	LabelMergedFrom Label = "MERGED_FROM"
	LabelRelated    Label = "RELATED"

	// Person-to-person labels, symmetric: the row is stored once with the
	// pair in canonical order.
	LabelManagerOf       Label = "MANAGER_OF"
	LabelSpouse          Label = "SPOUSE"
	LabelBusinessPartner Label = "BUSINESS_PARTNER"
	LabelColleague       Label = "COLLEAGUE"
	LabelOther           Label = "OTHER"
)

func IsEvidentiary(l Label) bool {
	switch l {
	case LabelReporter, LabelSubject, LabelWitness:
		return true
	}
	return false
}

func IsRole(l Label) bool {
	switch l {
	case LabelInvestigator, LabelLegalCounsel:
		return true
	}
	return false
}

func ValidPersonCaseLabel(l Label) bool   { return IsEvidentiary(l) || IsRole(l) }
func ValidPersonReportLabel(l Label) bool { return IsEvidentiary(l) }

func ValidCaseCaseLabel(l Label) bool {
	switch l {
	case LabelParent, LabelChild, LabelSplitFrom, LabelSplitTo, LabelMergedFrom, LabelRelated:
		return true
	}
	return false
}

func ValidPersonPersonLabel(l Label) bool {
	switch l {
	case LabelManagerOf, LabelSpouse, LabelBusinessPartner, LabelColleague, LabelOther:
		return true
	}
	return false
}

// EvidentiaryStatus tracks how an evidentiary association stands. The row
// itself is permanent; only this field moves.
type EvidentiaryStatus string

const (
	StatusActive        EvidentiaryStatus = "ACTIVE"
	StatusCleared       EvidentiaryStatus = "CLEARED"
	StatusSubstantiated EvidentiaryStatus = "SUBSTANTIATED"
	StatusWithdrawn     EvidentiaryStatus = "WITHDRAWN"
)

func (s EvidentiaryStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusCleared, StatusSubstantiated, StatusWithdrawn:
		return true
	}
	return false
}
