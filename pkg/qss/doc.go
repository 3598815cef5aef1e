/*
Package qss implements the Query/Subscription Server: a plain-ws
gorilla/websocket listener exposing the ordinal index's read queries as a
typed JSON request/response protocol, plus a topic-subscription and
server-initiated notification mechanism.

Server.ListenAndServe keeps the process alive across transient listener
trouble: a listener failure is logged and retried after a bounded pause
rather than crashing the process, and a disabled port (0) is polled rather
than started.

	srv := qss.NewServer(core, qss.Config{Port: 9944})
	go srv.ListenAndServe(ctx)
	...
	router := notify.NewRouter(srv)
	core.OnEvent(router.Dispatch)
*/
package qss
