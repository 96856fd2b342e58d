// Package bootstrap orchestrates the lifecycle of an application built around
// one container.
//
// It provides typed configuration, logger and telemetry initialization,
// descriptor registration, and startup/shutdown hooks.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Register(repoDescriptor, di.Singleton)
//	app.Register(serviceDescriptor, di.DefaultScope)
//	err = app.RunTask(ctx, func(ctx context.Context, c *di.Container) error {
//	    svc, err := di.Resolve[*Service](c, di.MustParseKey("Service[PgRepo]"))
//	    ...
//	})
//
// The container is built before the start hooks run, and closed on shutdown,
// which stops managed singletons in reverse construction order.
package bootstrap
