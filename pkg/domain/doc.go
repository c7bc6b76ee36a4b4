/*
Package domain contains the core types shared by the state engine, the loader and the adapters.

It defines the state tree, computed fields, the shared Context, action tables and the lifecycle
events emitted while a state is bound to a form scope. This package is kept pure and free of I/O.

# Key Entities

  - Tree: The plain nested-object value holding the data of one state.
  - Computed / Field: A function-valued leaf and the live accessor that replaces it.
  - Context: The single object threaded through actions and computed fields of one instance.
  - ActionTable: Name-keyed handlers produced by a dispatcher or mixin Factory.
  - LifecycleHooks: Callbacks for observing init, dispatch, registration and submission.
*/
package domain
