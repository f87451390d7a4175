package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClassName identifies a CIM class served by a provider
type ClassName string

const (
	ClassCluster        ClassName = "RedHat_Cluster"
	ClassClusterNode    ClassName = "RedHat_ClusterNode"
	ClassClusterService ClassName = "RedHat_ClusterService"
)

// Equal compares class names case-insensitively, matching CIM semantics
func (c ClassName) Equal(other ClassName) bool {
	return strings.EqualFold(string(c), string(other))
}

// ObjectPath identifies a single CIM instance by class and key properties
type ObjectPath struct {
	Class ClassName         `json:"class"`
	Keys  map[string]string `json:"keys"`
}

// NewObjectPath creates an object path for the class with the given keys
func NewObjectPath(class ClassName, keys map[string]string) ObjectPath {
	if keys == nil {
		keys = map[string]string{}
	}
	return ObjectPath{Class: class, Keys: keys}
}

// String renders the path in the conventional class.key=value,... form
// with keys sorted for stable output
func (p ObjectPath) String() string {
	names := make([]string, 0, len(p.Keys))
	for k := range p.Keys {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%q", k, p.Keys[k]))
	}

	return fmt.Sprintf("%s.%s", p.Class, strings.Join(parts, ","))
}

// Key returns the named key property, comparing names case-insensitively
func (p ObjectPath) Key(name string) (string, bool) {
	for k, v := range p.Keys {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Matches reports whether two paths identify the same instance. Class and
// key names compare case-insensitively; key values compare exactly.
func (p ObjectPath) Matches(other ObjectPath) bool {
	if !p.Class.Equal(other.Class) {
		return false
	}
	if len(p.Keys) != len(other.Keys) {
		return false
	}
	for k, v := range p.Keys {
		ov, ok := other.Key(k)
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Instance is a materialized CIM instance: an object path plus its
// non-key properties
type Instance struct {
	Path       ObjectPath     `json:"path"`
	Properties map[string]any `json:"properties"`
}

// NewInstance creates an instance for the path with an empty property set
func NewInstance(path ObjectPath) *Instance {
	return &Instance{
		Path:       path,
		Properties: make(map[string]any),
	}
}

// Set assigns a property value and returns the instance for chaining
func (i *Instance) Set(name string, value any) *Instance {
	i.Properties[name] = value
	return i
}

// GetString returns the named property as a string
func (i *Instance) GetString(name string) string {
	v, ok := i.Properties[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetInt returns the named property as an int
func (i *Instance) GetInt(name string) int {
	switch v := i.Properties[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// GetBool returns the named property as a bool
func (i *Instance) GetBool(name string) bool {
	v, _ := i.Properties[name].(bool)
	return v
}

// GetTime returns the named property as a time.Time
func (i *Instance) GetTime(name string) time.Time {
	v, _ := i.Properties[name].(time.Time)
	return v
}

// IndicationType categorizes a lifecycle indication
type IndicationType string

const (
	IndicationCreation     IndicationType = "creation"
	IndicationModification IndicationType = "modification"
	IndicationDeletion     IndicationType = "deletion"
)

// Indication is a lifecycle event describing a change to a CIM instance
type Indication struct {
	// ID is a unique, sortable indication identifier
	ID string `json:"id"`

	Type  IndicationType `json:"type"`
	Class ClassName      `json:"class"`
	Path  ObjectPath     `json:"path"`

	// Current is the instance after the change; nil for deletions
	Current *Instance `json:"current,omitempty"`

	// Previous is the instance before the change; nil for creations
	Previous *Instance `json:"previous,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
