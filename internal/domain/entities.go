package domain

// AgentRecord is either a Person or an Organization.
type AgentRecord interface {
	AgentName() (string, bool)
	agent()
}

// Person is the flat schema.org Person shape.
type Person struct {
	Name        Nullable[string] `json:"name"`
	Type        Nullable[string] `json:"@type"`
	JobTitle    Nullable[string] `json:"jobTitle"`
	Address     Nullable[string] `json:"address"`
	Affiliation Nullable[string] `json:"affiliation"`
	BirthDate   Nullable[string] `json:"birthDate"`
	BirthPlace  Nullable[string] `json:"birthPlace"`
	DeathDate   Nullable[string] `json:"deathDate"`
	DeathPlace  Nullable[string] `json:"deathPlace"`
	Email       Nullable[string] `json:"email"`
	FamilyName  Nullable[string] `json:"familyName"`
	Gender      Nullable[string] `json:"gender"`
	GivenName   Nullable[string] `json:"givenName"`
	Nationality Nullable[string] `json:"nationality"`
}

// AgentName implements AgentRecord.
func (p Person) AgentName() (string, bool) { return p.Name.Get() }

func (Person) agent() {}

// Organization is the flat schema.org Organization shape.
type Organization struct {
	Name        Nullable[string] `json:"name"`
	Type        Nullable[string] `json:"@type"`
	Address     Nullable[string] `json:"address"`
	Affiliation Nullable[string] `json:"affiliation"`
	Email       Nullable[string] `json:"email"`
}

// AgentName implements AgentRecord.
func (o Organization) AgentName() (string, bool) { return o.Name.Get() }

func (Organization) agent() {}

// MediaRecord is an ImageObject, AudioObject or VideoObject.
type MediaRecord interface {
	IsZero() bool
	media()
}

// ImageObject is the schema.org ImageObject shape used for image and thumbnail.
type ImageObject struct {
	Type   Nullable[string] `json:"@type"`
	Height Nullable[int]    `json:"height"`
	Width  Nullable[int]    `json:"width"`
	URL    Nullable[string] `json:"url"`
}

// IsZero reports whether no field was populated.
func (i ImageObject) IsZero() bool { return i == ImageObject{} }

func (ImageObject) media() {}

// Clip holds the fields shared by audio and video objects.
type Clip struct {
	Type       Nullable[string] `json:"@type"`
	Caption    Nullable[string] `json:"caption"`
	Transcript Nullable[string] `json:"transcript"`
	ContentURL Nullable[string] `json:"contentUrl"`
	Duration   Nullable[string] `json:"duration"`
	EmbedURL   Nullable[string] `json:"embedUrl"`
	Height     Nullable[int]    `json:"height"`
	UploadDate Nullable[string] `json:"uploadDate"`
	Width      Nullable[int]    `json:"width"`
}

// AudioObject is the schema.org AudioObject shape.
type AudioObject struct {
	Clip
}

// IsZero reports whether no field was populated.
func (a AudioObject) IsZero() bool { return a.Clip == Clip{} }

func (AudioObject) media() {}

// VideoObject is the schema.org VideoObject shape.
type VideoObject struct {
	Clip
}

// IsZero reports whether no field was populated.
func (v VideoObject) IsZero() bool { return v.Clip == Clip{} }

func (VideoObject) media() {}
