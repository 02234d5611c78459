package feed

import (
	"fmt"
	"strings"
)

// Kind identifies which timeline a feed shows.
type Kind int

const (
	KindHome Kind = iota
	KindMentions
	KindCompany
	KindTag
	KindGroup
	KindProfile
)

var kindNames = map[Kind]string{
	KindHome:     "home",
	KindMentions: "mentions",
	KindCompany:  "company",
	KindTag:      "tag",
	KindGroup:    "group",
	KindProfile:  "user",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Context selects the timeline a controller shows. Only the field that
// belongs to Kind is set; use the constructors rather than literals.
type Context struct {
	Kind     Kind
	Tag      string
	GroupID  string
	Username string
}

func Home() Context     { return Context{Kind: KindHome} }
func Mentions() Context { return Context{Kind: KindMentions} }
func Company() Context  { return Context{Kind: KindCompany} }

func Tag(tag string) Context {
	return Context{Kind: KindTag, Tag: strings.TrimPrefix(tag, "#")}
}

func Group(id string) Context {
	return Context{Kind: KindGroup, GroupID: id}
}

func UserProfile(username string) Context {
	return Context{Kind: KindProfile, Username: strings.TrimPrefix(username, "@")}
}

// Filter is the context-specific request parameter set. At most one
// field is non-empty.
type Filter struct {
	Kind     Kind
	Tag      string
	GroupID  string
	Username string
}

// Filter returns the parameters the context's endpoint needs.
func (c Context) Filter() Filter {
	f := Filter{Kind: c.Kind}
	switch c.Kind {
	case KindTag:
		f.Tag = c.Tag
	case KindGroup:
		f.GroupID = c.GroupID
	case KindProfile:
		f.Username = c.Username
	}
	return f
}

// Validate reports a context whose required field is missing.
func (c Context) Validate() error {
	switch c.Kind {
	case KindHome, KindMentions, KindCompany:
		return nil
	case KindTag:
		if c.Tag == "" {
			return fmt.Errorf("tag context needs a tag")
		}
	case KindGroup:
		if c.GroupID == "" {
			return fmt.Errorf("group context needs a group id")
		}
	case KindProfile:
		if c.Username == "" {
			return fmt.Errorf("user context needs a username")
		}
	default:
		return fmt.Errorf("unknown context kind %d", int(c.Kind))
	}
	return nil
}

// String renders the context in the form ParseContext accepts.
func (c Context) String() string {
	switch c.Kind {
	case KindTag:
		return "tag:" + c.Tag
	case KindGroup:
		return "group:" + c.GroupID
	case KindProfile:
		return "user:" + c.Username
	}
	return c.Kind.String()
}

// Label is the header text for the context.
func (c Context) Label() string {
	switch c.Kind {
	case KindHome:
		return "Home"
	case KindMentions:
		return "Mentions"
	case KindCompany:
		return "Company"
	case KindTag:
		return "#" + c.Tag
	case KindGroup:
		return "Group " + c.GroupID
	case KindProfile:
		return "@" + c.Username
	}
	return c.Kind.String()
}

// ParseContext accepts "home", "mentions", "company", "tag:<t>",
// "group:<id>" and "user:<name>". A space works as separator too, and
// "timeline" is an alias for home.
func ParseContext(s string) (Context, error) {
	s = strings.TrimSpace(s)
	name, arg, found := strings.Cut(s, ":")
	if !found {
		name, arg, _ = strings.Cut(s, " ")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	var c Context
	switch name {
	case "", "home", "timeline", "timelinepresentation":
		c = Home()
	case "mentions":
		c = Mentions()
	case "company":
		c = Company()
	case "tag":
		c = Tag(arg)
	case "group":
		c = Group(arg)
	case "user", "profile":
		c = UserProfile(arg)
	default:
		return Context{}, fmt.Errorf("unknown feed %q", name)
	}
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	return c, nil
}
