package user

func NewCreatedEvent(sender User, data User) *CreatedEvent {
	return &CreatedEvent{Sender: sender, Data: data}
}

func NewUpdatedEvent(sender User, data User) *UpdatedEvent {
	return &UpdatedEvent{Sender: sender, Data: data}
}

func NewDeletedEvent(sender User) *DeletedEvent {
	return &DeletedEvent{Sender: sender}
}

type CreatedEvent struct {
	Sender User
	Data   User
	Result User
}

type UpdatedEvent struct {
	Sender User
	Data   User
	Result User
}

type DeletedEvent struct {
	Sender User
	Result User
}
