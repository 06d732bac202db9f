package report

import (
	"time"
)

// Extension carries the channel-specific intake fields. Exactly one
// extension exists per report and, like the rest of the intake content,
// it is frozen after creation.
type Extension interface {
	Channel() Channel
}

type HotlineDetails struct {
	OperatorName   string
	CallReference  string
	CallbackNumber string
	ReceivedCallAt time.Time
}

func (HotlineDetails) Channel() Channel { return ChannelHotline }

type WebFormDetails struct {
	FormVersion string
	SubmitterIP string
	UserAgent   string
	SubmittedAt time.Time
}

func (WebFormDetails) Channel() Channel { return ChannelWebForm }

type DisclosureDetails struct {
	DiscloserRole string
	Relationship  string
	LocationName  string
	DisclosedAt   time.Time
}

func (DisclosureDetails) Channel() Channel { return ChannelDisclosure }
