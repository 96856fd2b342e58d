// Package testutil provides fixtures for tests that build containers.
//
// A container that logs nowhere and is closed when the test ends:
//
//	c := testutil.NewContainer(t)
//	c.MustRegister(di.ClassDescriptor{Base: "DB", Construct: testutil.Value(db)}, di.Singleton)
//
// Managed instances that record their lifecycle:
//
//	j := &testutil.Journal{}
//	db := testutil.NewResource("db", j)
//	...
//	c.Close(ctx)
//	j.Entries() // ["init db", "stop db"]
//
// Counting constructions:
//
//	var n testutil.Counter
//	desc.Construct = n.Wrap(testutil.Value(db))
//	n.Calls()
package testutil
