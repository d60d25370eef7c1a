package conversation

// KeyboardKind tells the transport which keyboard to attach to the last message.
type KeyboardKind int

const (
	KeyboardNone KeyboardKind = iota
	KeyboardCancel
	KeyboardMainMenu
	KeyboardRemove
)

func (k KeyboardKind) String() string {
	switch k {
	case KeyboardCancel:
		return "cancel"
	case KeyboardMainMenu:
		return "main_menu"
	case KeyboardRemove:
		return "remove"
	default:
		return "none"
	}
}

// Reply is what the bot answers to one inbound message.
type Reply struct {
	Messages []string
	Keyboard KeyboardKind
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return len(r.Messages) == 0
}

func (t *Texts) menuReply(messages ...string) Reply {
	return Reply{Messages: append(messages, t.MainMenu), Keyboard: KeyboardMainMenu}
}

func promptReply(messages ...string) Reply {
	return Reply{Messages: messages, Keyboard: KeyboardCancel}
}

// MainMenuReply is the bare menu prompt.
func (t *Texts) MainMenuReply() Reply {
	return t.menuReply()
}
