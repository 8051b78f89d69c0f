package system

import "strings"

// Voice is one entry from the platform voice listing.
type Voice struct {
	Name     string
	Language string
}

// parseVoiceList parses `say -v ?` output. Each line looks like
//
//	Samantha            en_US    # Hello, my name is Samantha.
//
// espeak's `--voices` rows carry a numeric priority column first and are
// parsed by position instead.
func parseVoiceList(output string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Pty") {
			continue
		}
		if comment := strings.Index(line, "#"); comment != -1 {
			line = strings.TrimSpace(line[:comment])
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		// espeak rows read "Pty Language Age/Gender VoiceName ...".
		if isDigits(fields[0]) {
			if len(fields) >= 4 {
				voices = append(voices, Voice{Name: fields[3], Language: fields[1]})
			}
			continue
		}

		voice := Voice{Name: fields[0]}
		for _, field := range fields[1:] {
			if looksLikeLanguageTag(field) {
				voice.Language = field
				break
			}
			voice.Name += " " + field
		}
		voices = append(voices, voice)
	}
	return voices
}

func isDigits(field string) bool {
	for _, r := range field {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(field) > 0
}

func looksLikeLanguageTag(field string) bool {
	if len(field) < 2 || len(field) > 7 {
		return false
	}
	head := field[:2]
	if head != strings.ToLower(head) {
		return false
	}
	if len(field) == 2 {
		return true
	}
	return field[2] == '_' || field[2] == '-'
}

// SelectVoice picks a voice from the listing: an exact name match wins,
// then the first voice whose language starts with the preferred language,
// then the first voice available. The zero Voice means the listing was
// empty and the system default should be used.
func SelectVoice(voices []Voice, name, language string) Voice {
	if len(voices) == 0 {
		return Voice{}
	}

	for _, voice := range voices {
		if voice.Name == name {
			return voice
		}
	}

	if language != "" {
		normalized := strings.ReplaceAll(strings.ToLower(language), "-", "_")
		for _, voice := range voices {
			candidate := strings.ReplaceAll(strings.ToLower(voice.Language), "-", "_")
			if strings.HasPrefix(candidate, normalized) {
				return voice
			}
		}
	}

	return voices[0]
}
