/*
Package ports defines the host-side contracts the state loader depends on.

These interfaces decouple the core from the view framework that owns the form, so the
loader can be driven by an in-memory scope in tests, by an HTTP adapter, or by any other host.

# Key Interfaces

  - Scope: The form scope (properties, lifecycle events, form submission).
  - Submitter: Receives the output parameters when the form is submitted.
  - Trigger: A callable installed on the scope (send and show triggers).
*/
package ports
