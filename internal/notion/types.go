package notion

// Wire shapes for the subset of the Notion API this service reads. Property
// parsing is deliberately loose: user databases vary, so every accessor
// tolerates absent or differently-typed properties.

type pageObject struct {
	ID     string                   `json:"id"`
	URL    string                   `json:"url"`
	Parent parentRef                `json:"parent"`
	Properties map[string]propertyValue `json:"properties"`
}

type parentRef struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

type propertyValue struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Select      *selectOption  `json:"select"`
	MultiSelect []selectOption `json:"multi_select"`
	Status      *selectOption  `json:"status"`
	Date        *dateValue     `json:"date"`
	People      []userRef      `json:"people"`
}

type richText struct {
	PlainText string   `json:"plain_text"`
	Mention   *mention `json:"mention"`
}

type mention struct {
	Type string   `json:"type"`
	User *userRef `json:"user"`
}

type selectOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type dateValue struct {
	Start string `json:"start"`
}

type userRef struct {
	ID string `json:"id"`
}

type blockList struct {
	Results    []blockObject `json:"results"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor"`
}

type blockObject struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
	// The type-named payload is decoded lazily; see blockText.
	raw map[string]jsonRaw
}

type databaseObject struct {
	ID         string                      `json:"id"`
	Properties map[string]databaseProperty `json:"properties"`
}

type databaseProperty struct {
	Type   string `json:"type"`
	Status *struct {
		Options []selectOption `json:"options"`
	} `json:"status"`
}

// PageContent is the flattened read model the orchestrator consumes.
type PageContent struct {
	ID               string
	Title            string
	Body             string
	Status           string
	Priority         int // Todoist scale: 1 (normal) .. 4 (urgent)
	DueDate          string
	Tags             []string
	URL              string
	MentionedUserIDs []string
}

// MentionsUser reports whether the given user id appears in the page's people
// properties or inline mentions.
func (p *PageContent) MentionsUser(userID string) bool {
	for _, id := range p.MentionedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
