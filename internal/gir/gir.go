// Package gir holds the raw, unresolved element tree of a GIR
// repository file. It is the input collaborator of the model builder:
// names and type references here are plain strings, exactly as they
// appear in the source document. Reference resolution happens later,
// in internal/resolver.
package gir

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Repository is the root element of a .gir document.
type Repository struct {
	XMLName   xml.Name  `xml:"repository"`
	Includes  []Include `xml:"include"`
	Namespace Namespace `xml:"namespace"`

	// Path is the file the repository was decoded from. Not part of
	// the document.
	Path string `xml:"-"`
}

// Include declares a dependency on another namespace.
type Include struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
}

// Namespace is the single namespace element of a repository.
type Namespace struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`

	Classes    []Class    `xml:"class"`
	Interfaces []Class    `xml:"interface"`
	Records    []Class    `xml:"record"`
	Enums      []Enum     `xml:"enumeration"`
	Bitfields  []Enum     `xml:"bitfield"`
	Functions  []Function `xml:"function"`
	Callbacks  []Callback `xml:"callback"`
	Constants  []Constant `xml:"constant"`
	Aliases    []Alias    `xml:"alias"`
}

// Class covers class, interface and record elements; they share the
// same attribute and child surface in the document.
type Class struct {
	Name         string      `xml:"name,attr"`
	Parent       string      `xml:"parent,attr"`
	CType        string      `xml:"type,attr"`
	GLibTypeName string      `xml:"type-name,attr"`
	Abstract     bool        `xml:"abstract,attr"`
	Implements   []Implement `xml:"implements"`

	Constructors   []Function `xml:"constructor"`
	Methods        []Function `xml:"method"`
	Functions      []Function `xml:"function"`
	VirtualMethods []Function `xml:"virtual-method"`
	Properties     []Property `xml:"property"`
	Fields         []Field    `xml:"field"`
	Callbacks      []Callback `xml:"callback"`
}

// Implement names an implemented interface, possibly qualified.
type Implement struct {
	Name string `xml:"name,attr"`
}

// Function covers function, method, constructor and virtual-method
// elements.
type Function struct {
	Name        string     `xml:"name,attr"`
	CIdentifier string     `xml:"identifier,attr"`
	Return      *Return    `xml:"return-value"`
	Params      *ParamList `xml:"parameters"`
}

// Callback is a function signature declared as a named type, either
// globally or nested inside a class-like declaration.
type Callback struct {
	Name        string     `xml:"name,attr"`
	CType       string     `xml:"type,attr"`
	Return      *Return    `xml:"return-value"`
	Params      *ParamList `xml:"parameters"`
}

type ParamList struct {
	Params []Param `xml:"parameter"`
}

type Param struct {
	Name      string `xml:"name,attr"`
	Direction string `xml:"direction,attr"` // "", "in", "out", "inout"
	Nullable  bool   `xml:"nullable,attr"`
	Transfer  string `xml:"transfer-ownership,attr"`
	Type      *Type  `xml:"type"`
	Array     *Array `xml:"array"`
}

type Return struct {
	Nullable bool   `xml:"nullable,attr"`
	Transfer string `xml:"transfer-ownership,attr"`
	Type     *Type  `xml:"type"`
	Array    *Array `xml:"array"`
}

// Type is a raw type reference: a primary name plus the secondary
// low-level c:type annotation.
type Type struct {
	Name  string `xml:"name,attr"`
	CType string `xml:"type,attr"`
}

// Array wraps an element type (or a nested array, raising the depth).
type Array struct {
	CType string `xml:"type,attr"`
	Type  *Type  `xml:"type"`
	Array *Array `xml:"array"`
}

type Property struct {
	Name     string `xml:"name,attr"`
	Writable bool   `xml:"writable,attr"`
	Nullable bool   `xml:"nullable,attr"`
	Type     *Type  `xml:"type"`
	Array    *Array `xml:"array"`
}

type Field struct {
	Name     string    `xml:"name,attr"`
	Writable bool      `xml:"writable,attr"`
	Type     *Type     `xml:"type"`
	Array    *Array    `xml:"array"`
	Callback *Callback `xml:"callback"`
}

type Enum struct {
	Name    string       `xml:"name,attr"`
	CType   string       `xml:"type,attr"`
	Members []EnumMember `xml:"member"`
}

type EnumMember struct {
	Name        string `xml:"name,attr"`
	Value       string `xml:"value,attr"`
	CIdentifier string `xml:"identifier,attr"`
}

type Constant struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	CType string `xml:"type,attr"`
	Type  *Type  `xml:"type"`
}

type Alias struct {
	Name  string `xml:"name,attr"`
	CType string `xml:"type,attr"`
	Type  *Type  `xml:"type"`
}

// Decode parses a repository document from bytes. The path argument is
// recorded on the result and used in error messages only.
func Decode(data []byte, path string) (*Repository, error) {
	var repo Repository
	if err := xml.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if repo.Namespace.Name == "" {
		return nil, fmt.Errorf("decoding %s: repository has no namespace element", path)
	}
	repo.Path = path
	return &repo, nil
}

// DecodeFile reads and parses a repository document from disk.
func DecodeFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading repository %s: %w", path, err)
	}
	return Decode(data, path)
}
