// Package notifier broadcasts icon refresh requests to every interested
// consumer in the process.
//
// Consumers register a Subscriber and receive a Subscription handle. Closing
// the handle removes the subscriber; the notifier keeps no other reference to
// it, so a consumer that goes away simply closes its subscription.
//
//	sub := n.Subscribe(notifier.SubscriberFunc(func(ctx context.Context) {
//		provider.Reset()
//	}))
//	defer sub.Close()
//
// TriggerAllIconsRefreshAndIconEnablersReinit delivers to all subscribers
// concurrently and returns once each of them has run.
package notifier
