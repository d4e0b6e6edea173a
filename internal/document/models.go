package document

import "time"

const (
	// DefaultTitle is used when a document is created without a title.
	DefaultTitle = "Untitled Document"
	// DefaultContent is the HTML snapshot of a freshly created document.
	DefaultContent = "<p>Start typing your document here...</p>"
	// MaxTitleLength is measured in runes.
	MaxTitleLength = 200
)

// Document is the authoritative persisted state of a shared document. Content is always a
// complete HTML snapshot, never a patch.
type Document struct {
	ID            string         `json:"id" bson:"documentId"`
	Title         string         `json:"title" bson:"title"`
	Content       string         `json:"content" bson:"content"`
	LastModified  time.Time      `json:"lastModified" bson:"lastModified"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	Collaborators []Collaborator `json:"collaborators" bson:"collaborators"`
}

// Collaborator is an informational record of someone who joined the document at least once.
type Collaborator struct {
	Username string    `json:"username" bson:"username"`
	Color    string    `json:"color" bson:"color"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Summary is the list projection of a document.
type Summary struct {
	ID           string    `json:"id" bson:"documentId"`
	Title        string    `json:"title" bson:"title"`
	LastModified time.Time `json:"lastModified" bson:"lastModified"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Collaborators = append(make([]Collaborator, 0, len(d.Collaborators)), d.Collaborators...)
	return &cp
}

// Summarize projects the document into its list form.
func (d *Document) Summarize() Summary {
	return Summary{ID: d.ID, Title: d.Title, LastModified: d.LastModified, CreatedAt: d.CreatedAt}
}
