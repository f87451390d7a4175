// Package types defines the core interfaces and data structures for the CIM Provider Kit.
// It includes provider interfaces, the CIM object model, the cluster state model,
// configuration types, and error and metrics structures used across all provider
// implementations.
package types
