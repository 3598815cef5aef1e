/*
Package notify is the pure fan-out between the ordinal index core and the
query/subscription server: it maps an OIC event kind to a wire topic and
notification code and hands the payload straight to the server's broadcast
call. There is no buffering and no retry — a send failure on one connection
never affects another, and the router itself never blocks the block-apply
thread waiting on a slow client.

This is deliberately simpler than a generic pub/sub broker: OIC emits
events synchronously, in the order state changes happen, on the thread that
produced them, and Router.Dispatch preserves that order by calling straight
through rather than handing events to a channel and a separate goroutine.
*/
package notify
