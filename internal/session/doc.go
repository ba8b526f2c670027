// Package session ties a document, its artifact and revision stores, and a
// set of registered pipelines into a single locked unit of work. Opening a
// session restores the latest persisted revision; completed pipeline runs are
// persisted as new revisions before they are reported back to the caller.
package session
