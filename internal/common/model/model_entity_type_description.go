package model

import "github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"

// EntityTypeDescription describes one registered entity type.
type EntityTypeDescription struct {
	Name       string               `json:"name"`
	Index      string               `json:"index,omitempty"`
	TypeField  string               `json:"typeField,omitempty"`
	TypeValue  string               `json:"typeValue,omitempty"`
	Properties []PropertyDescriptor `json:"properties"`
}

// PropertyDescriptor describes one property together with the document field it is stored in.
type PropertyDescriptor struct {
	Name        string `json:"name"`
	Field       string `json:"field"`
	Searchable  bool   `json:"searchable,omitempty"`
	Lifecycle   bool   `json:"lifecycle,omitempty"`
	Nested      bool   `json:"nested,omitempty"`
	RelatedType string `json:"relatedType,omitempty"`
}

// NewEntityTypeDescription converts a registered entity type.
func NewEntityTypeDescription(e metadata.EntityType) EntityTypeDescription {
	d := EntityTypeDescription{
		Name:       e.Name,
		Index:      e.IndexName(),
		TypeField:  e.TypeField,
		TypeValue:  e.TypeValue,
		Properties: make([]PropertyDescriptor, 0, len(e.Properties)),
	}
	for _, p := range e.Properties {
		d.Properties = append(d.Properties, PropertyDescriptor{
			Name:        p.Name,
			Field:       p.PhysicalName(),
			Searchable:  p.Searchable,
			Lifecycle:   p.Lifecycle,
			Nested:      p.Nested,
			RelatedType: p.RelatedType,
		})
	}
	return d
}
