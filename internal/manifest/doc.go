// Package manifest loads form manifests and compiles them into running forms.
//
// A manifest is a YAML (or JSON) document describing the loader configuration, the input
// parameters and host context, the states with their computed fields, actions and
// connections, and an optional script of steps to replay:
//
//	name: signup
//	input:
//	  email: ada@example.com
//	states:
//	  - name: profile
//	    state:
//	      first: Ada
//	      last: Lovelace
//	    computed:
//	      full: state.first + " " + state.last
//	    actions:
//	      rename:
//	        set:
//	          first: value
//	        return: state.full
//	    connect:
//	      input:
//	        email: params.email
//	      output:
//	        name: state.full
//	steps:
//	  - dispatch: profile.rename
//	    value: Grace
//	  - send:
//	      tag: final
//
// Expressions use the expr language. Action expressions see the state tree as state, the
// action argument as value and the host context as host. Input expressions see the input
// parameters as params; output expressions see host.
package manifest
