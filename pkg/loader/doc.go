/*
Package loader binds state descriptors to one form scope.

A Loader owns the registry of states exposed on the scope, refuses names that collide with
foreign scope properties, and installs two trigger methods on the scope: the send trigger,
which fans the send event out to every state and merges their output mappings into the
scope's output container before the form is submitted, and the show trigger.

	l, err := loader.New(scope)
	if err != nil {
		return err
	}
	if err := l.Register(profile); err != nil {
		return err // domain.ErrNamingConflict
	}
	return l.Send("finish")
*/
package loader
