// Package graph defines the operation tree handed to the evaluators.
// Every Node is one geometric operation over its ordered children, with
// its parameters already resolved into a kind-specific payload. The tree
// is strictly hierarchical: no node is its own descendant and no node
// has two parents.
package graph
