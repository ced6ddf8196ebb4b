package conversation

// Action is a request from the state machine to the session. The set is closed.
type Action interface {
	isAction()
}

// SendMessage appends a user turn and streams a reply.
type SendMessage struct {
	Text string
}

// ClearHistory drops everything but the system turn.
type ClearHistory struct{}

// SwitchPersona clears the history and installs a new system turn.
type SwitchPersona struct {
	Persona Persona
}

func (SendMessage) isAction()   {}
func (ClearHistory) isAction()  {}
func (SwitchPersona) isAction() {}
