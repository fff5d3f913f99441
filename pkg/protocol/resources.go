package protocol

import (
	"strings"
)

// Resource represents a concrete, URI-addressed readable exposed by a server
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate represents a URI pattern with {placeholder} segments.
// Templates are resolved by literal substitution; the client does not
// validate placeholder semantics beyond that.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Expand resolves the template into a concrete URI by substituting each
// {name} segment with values[name]. Placeholders without a value are left
// untouched, so the caller can detect an incomplete expansion.
func (t ResourceTemplate) Expand(values map[string]string) string {
	uri := t.URITemplate
	for name, value := range values {
		uri = strings.ReplaceAll(uri, "{"+name+"}", value)
	}
	return uri
}

// ListResourcesResult defines the response for listing concrete resources
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListResourceTemplatesResult defines the response for listing resource
// templates; may be empty.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string             `json:"nextCursor,omitempty"`
}

// ReadResourceParams defines parameters for reading a resource
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult defines the response for reading a resource: an
// ordered sequence of content items, each tagged with its owning URI.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// ResourceContents is one content item of a read resource. Text and Blob
// are mutually exclusive; Blob carries base64-encoded binary data.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// IsText reports whether the item carries textual content
func (c ResourceContents) IsText() bool {
	return c.Blob == ""
}

// SubscribeResourceParams defines parameters for (un)subscribing to a
// resource by URI. Both calls return an empty acknowledgement.
type SubscribeResourceParams struct {
	URI string `json:"uri"`
}
