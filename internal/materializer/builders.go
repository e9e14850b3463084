package materializer

import (
	"fmt"
	"strconv"
	"strings"

	"ArticleRecommender/internal/domain"
)

// statement is one second-hop (term, value) pair of an object node.
type statement struct {
	term  string
	value string
}

// prefer picks a deterministic winner when a field is bound more than once:
// the lexically smallest value, so tuple order never changes the result.
func prefer[T string | int](cur domain.Nullable[T], v T) domain.Nullable[T] {
	if !cur.Valid || v < cur.Value {
		return domain.Some(v)
	}
	return cur
}

func parseCount(term, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", term, raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s %q: negative value", term, raw)
	}
	return n, nil
}

var personFields = map[string]func(*domain.Person, string){
	"name":        func(p *domain.Person, v string) { p.Name = prefer(p.Name, v) },
	"@type":       func(p *domain.Person, v string) { p.Type = prefer(p.Type, term(v)) },
	"jobTitle":    func(p *domain.Person, v string) { p.JobTitle = prefer(p.JobTitle, v) },
	"address":     func(p *domain.Person, v string) { p.Address = prefer(p.Address, v) },
	"affiliation": func(p *domain.Person, v string) { p.Affiliation = prefer(p.Affiliation, v) },
	"birthDate":   func(p *domain.Person, v string) { p.BirthDate = prefer(p.BirthDate, v) },
	"birthPlace":  func(p *domain.Person, v string) { p.BirthPlace = prefer(p.BirthPlace, v) },
	"deathDate":   func(p *domain.Person, v string) { p.DeathDate = prefer(p.DeathDate, v) },
	"deathPlace":  func(p *domain.Person, v string) { p.DeathPlace = prefer(p.DeathPlace, v) },
	"email":       func(p *domain.Person, v string) { p.Email = prefer(p.Email, v) },
	"familyName":  func(p *domain.Person, v string) { p.FamilyName = prefer(p.FamilyName, v) },
	"gender":      func(p *domain.Person, v string) { p.Gender = prefer(p.Gender, v) },
	"givenName":   func(p *domain.Person, v string) { p.GivenName = prefer(p.GivenName, v) },
	"nationality": func(p *domain.Person, v string) { p.Nationality = prefer(p.Nationality, v) },
}

func buildPerson(stmts []statement) domain.AgentRecord {
	var p domain.Person
	for _, st := range stmts {
		if set, ok := personFields[st.term]; ok {
			set(&p, st.value)
		}
	}
	return p
}

var organizationFields = map[string]func(*domain.Organization, string){
	"name":        func(o *domain.Organization, v string) { o.Name = prefer(o.Name, v) },
	"@type":       func(o *domain.Organization, v string) { o.Type = prefer(o.Type, term(v)) },
	"address":     func(o *domain.Organization, v string) { o.Address = prefer(o.Address, v) },
	"affiliation": func(o *domain.Organization, v string) { o.Affiliation = prefer(o.Affiliation, v) },
	"email":       func(o *domain.Organization, v string) { o.Email = prefer(o.Email, v) },
}

func buildOrganization(stmts []statement) domain.AgentRecord {
	var o domain.Organization
	for _, st := range stmts {
		if set, ok := organizationFields[st.term]; ok {
			set(&o, st.value)
		}
	}
	return o
}

// buildImage returns the image and the errors of the statements it had to skip.
// An object without statements is read as the image URL itself.
func buildImage(object string, stmts []statement) (domain.ImageObject, []error) {
	var (
		img  domain.ImageObject
		errs []error
	)
	if len(stmts) == 0 {
		if object != "" {
			img.URL = domain.Some(object)
		}
		return img, nil
	}
	for _, st := range stmts {
		switch st.term {
		case "@type":
			img.Type = prefer(img.Type, term(st.value))
		case "url", "contentUrl":
			img.URL = prefer(img.URL, st.value)
		case "height", "width":
			n, err := parseCount(st.term, st.value)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if st.term == "height" {
				img.Height = prefer(img.Height, n)
			} else {
				img.Width = prefer(img.Width, n)
			}
		}
	}
	return img, errs
}

// buildClip fills the fields shared by audio and video objects.
func buildClip(object string, stmts []statement) (domain.Clip, []error) {
	var (
		clip domain.Clip
		errs []error
	)
	if len(stmts) == 0 {
		if object != "" {
			clip.ContentURL = domain.Some(object)
		}
		return clip, nil
	}
	for _, st := range stmts {
		switch st.term {
		case "@type":
			clip.Type = prefer(clip.Type, term(st.value))
		case "caption":
			clip.Caption = prefer(clip.Caption, st.value)
		case "transcript":
			clip.Transcript = prefer(clip.Transcript, st.value)
		case "contentUrl", "url":
			clip.ContentURL = prefer(clip.ContentURL, st.value)
		case "duration":
			clip.Duration = prefer(clip.Duration, st.value)
		case "embedUrl":
			clip.EmbedURL = prefer(clip.EmbedURL, st.value)
		case "uploadDate":
			clip.UploadDate = prefer(clip.UploadDate, st.value)
		case "height", "width":
			n, err := parseCount(st.term, st.value)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if st.term == "height" {
				clip.Height = prefer(clip.Height, n)
			} else {
				clip.Width = prefer(clip.Width, n)
			}
		}
	}
	return clip, errs
}
