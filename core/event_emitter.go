package orchestration

import events "github.com/dmarkovic/trainer-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptInterimUpdated:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserUtteranceFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Text)
			}
		case events.AvatarStateChanged:
			if opts.onAvatarStateChanged != nil {
				opts.onAvatarStateChanged(typedEvent.State)
			}
		case events.TranscriptAppended:
			if opts.onTranscriptAppended != nil {
				opts.onTranscriptAppended(typedEvent.Role, typedEvent.Content)
			}
		case events.MetricsUpdated:
			if opts.onMetricsUpdated != nil {
				opts.onMetricsUpdated(typedEvent)
			}
		case events.ReadinessUpdated:
			if opts.onReadinessUpdated != nil {
				opts.onReadinessUpdated(typedEvent)
			}
		case events.PlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(typedEvent.Tier)
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Tier)
			}
		case events.SessionEnded:
			if opts.onSessionEnded != nil {
				opts.onSessionEnded(typedEvent.Reason)
			}
		}
	}
}
