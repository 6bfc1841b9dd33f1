package task

// Patch накапливает изменения для обновления задачи.
// nil-поля означают "не менять".
type Patch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	ParentID         *string
	ClearParent      bool
	Tags             []string
	ReplaceTags      bool
}

type TaskOption func(*Patch)

func WithTitle(title string) TaskOption {
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) TaskOption {
	return func(p *Patch) {
		p.Description = &description
		p.ClearDescription = false
	}
}

func WithoutDescription() TaskOption {
	return func(p *Patch) {
		p.Description = nil
		p.ClearDescription = true
	}
}

func WithParent(parentID string) TaskOption {
	return func(p *Patch) {
		p.ParentID = &parentID
		p.ClearParent = false
	}
}

func WithoutParent() TaskOption {
	return func(p *Patch) {
		p.ParentID = nil
		p.ClearParent = true
	}
}

// WithTags заменяет весь набор тегов; пустой срез снимает все теги
func WithTags(names ...string) TaskOption {
	return func(p *Patch) {
		p.Tags = append([]string{}, names...)
		p.ReplaceTags = true
	}
}

func NewPatch(options ...TaskOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

// ParentChanged сообщает, меняет ли патч родителя относительно текущего значения
func (p Patch) ParentChanged(current *string) bool {
	switch {
	case p.ClearParent:
		return current != nil
	case p.ParentID != nil:
		return current == nil || *current != *p.ParentID
	default:
		return false
	}
}
