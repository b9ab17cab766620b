package notify

import (
	"golang.org/x/text/language"

	"github.com/tbourn/forum-guard/internal/domain"
)

type entry struct {
	subject, body, snippet string
}

const footer = "\n\n{{.Link}}\n\nYou are receiving this because of your notification settings."

var catalogue = map[language.Tag]map[domain.MentionType]entry{
	language.English: {
		domain.MentionMember: {
			subject: "{{.Sender}} mentioned you",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} mentioned you in \"{{.Subject}}\"." + footer,
			snippet: "{{.Sender}} mentioned you in {{.Subject}}",
		},
		domain.MentionQuote: {
			subject: "{{.Sender}} quoted your post",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} quoted you in \"{{.Subject}}\"." + footer,
			snippet: "{{.Sender}} quoted you in {{.Subject}}",
		},
		domain.MentionLike: {
			subject: "{{.Sender}} liked your post",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} liked your post \"{{.Subject}}\"." + footer,
			snippet: "{{.Sender}} liked {{.Subject}}",
		},
		domain.MentionUnlike: {
			subject: "{{.Sender}} removed a like",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} no longer likes your post \"{{.Subject}}\"." + footer,
			snippet: "{{.Sender}} unliked {{.Subject}}",
		},
		domain.MentionBuddy: {
			subject: "{{.Sender}} added you as a buddy",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} added you to their buddy list." + footer,
			snippet: "{{.Sender}} added you as a buddy",
		},
		domain.MentionWatchTopic: {
			subject: "New reply: {{.Subject}}",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} replied to a topic you watch, \"{{.Subject}}\"." + footer,
			snippet: "{{.Sender}} replied to {{.Subject}}",
		},
		domain.MentionWatchBoard: {
			subject: "New topic: {{.Subject}}",
			body:    "Hello {{.Recipient}},\n\n{{.Sender}} started \"{{.Subject}}\" in a board you watch." + footer,
			snippet: "{{.Sender}} started {{.Subject}}",
		},
		domain.MentionMailFail: {
			subject: "Email delivery problem",
			body:    "Hello {{.Recipient}},\n\nAn email sent to your address bounced. Please check your profile." + footer,
			snippet: "Email delivery to your address failed",
		},
	},
	language.German: {
		domain.MentionMember: {
			subject: "{{.Sender}} hat dich erwähnt",
			body:    "Hallo {{.Recipient}},\n\n{{.Sender}} hat dich in \"{{.Subject}}\" erwähnt.\n\n{{.Link}}",
			snippet: "{{.Sender}} hat dich in {{.Subject}} erwähnt",
		},
		domain.MentionQuote: {
			subject: "{{.Sender}} hat deinen Beitrag zitiert",
			body:    "Hallo {{.Recipient}},\n\n{{.Sender}} hat dich in \"{{.Subject}}\" zitiert.\n\n{{.Link}}",
			snippet: "{{.Sender}} hat dich in {{.Subject}} zitiert",
		},
		domain.MentionLike: {
			subject: "{{.Sender}} gefällt dein Beitrag",
			body:    "Hallo {{.Recipient}},\n\n{{.Sender}} gefällt dein Beitrag \"{{.Subject}}\".\n\n{{.Link}}",
			snippet: "{{.Sender}} gefällt {{.Subject}}",
		},
	},
	language.Italian: {
		domain.MentionMember: {
			subject: "{{.Sender}} ti ha menzionato",
			body:    "Ciao {{.Recipient}},\n\n{{.Sender}} ti ha menzionato in \"{{.Subject}}\".\n\n{{.Link}}",
			snippet: "{{.Sender}} ti ha menzionato in {{.Subject}}",
		},
		domain.MentionLike: {
			subject: "A {{.Sender}} piace il tuo messaggio",
			body:    "Ciao {{.Recipient}},\n\na {{.Sender}} piace il tuo messaggio \"{{.Subject}}\".\n\n{{.Link}}",
			snippet: "A {{.Sender}} piace {{.Subject}}",
		},
	},
}
