// Package i18n holds the user-facing strings the client emits in Arabic
// and English.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Lang is a supported interface language.
type Lang string

// Supported languages.
const (
	Arabic  Lang = "ar"
	English Lang = "en"
)

// Default is used when nothing better matches.
const Default = Arabic

// Key names a translatable string.
type Key string

// Translatable strings.
const (
	NewChatTitle      Key = "new_chat_title"
	ChatFallbackTitle Key = "chat_fallback_title"
	ConnectionError   Key = "connection_error"
	ExportDate        Key = "export_date"
	YouLabel          Key = "you_label"
	AssistantLabel    Key = "assistant_label"
	JustNow           Key = "just_now"
	MinutesAgo        Key = "minutes_ago"
	HoursAgo          Key = "hours_ago"
	NoMessages        Key = "no_messages"
	NoHistory         Key = "no_history"
	InputPlaceholder  Key = "input_placeholder"
	StatusReady       Key = "status_ready"
	StatusStreaming   Key = "status_streaming"
	StatusCancelled   Key = "status_cancelled"
	StatusCopied      Key = "status_copied"
	NothingToExport   Key = "nothing_to_export"
	HistoryHeader     Key = "history_header"
	EnterMessage      Key = "enter_message"
	ServerError       Key = "server_error"
	StatusFailed      Key = "status_failed"
	StatusTimedOut    Key = "status_timed_out"
	StatusSaved       Key = "status_saved"
	SearchResults     Key = "search_results"
	NoResults         Key = "no_results"
	ConfirmClear      Key = "confirm_clear"
)

var catalogs = map[Lang]map[Key]string{
	Arabic: {
		NewChatTitle:      "محادثة جديدة",
		ChatFallbackTitle: "محادثة",
		ConnectionError:   "حدث خطأ في الاتصال",
		ExportDate:        "التاريخ",
		YouLabel:          "👤 أنت",
		AssistantLabel:    "🤖 المساعد",
		JustNow:           "الآن",
		MinutesAgo:        "منذ %d دقيقة",
		HoursAgo:          "منذ %d ساعة",
		NoMessages:        "لا توجد رسائل بعد. اكتب شيئاً لبدء المحادثة.",
		NoHistory:         "لا توجد محادثات سابقة",
		InputPlaceholder:  "اكتب رسالتك هنا...",
		StatusReady:       "جاهز",
		StatusStreaming:   "جاري الكتابة...",
		StatusCancelled:   "تم الإيقاف",
		StatusCopied:      "تم النسخ",
		NothingToExport:   "لا توجد رسائل لتصديرها",
		HistoryHeader:     "المحادثات",
		EnterMessage:      "الرجاء إدخال رسالة",
		ServerError:       "حدث خطأ: %s",
		StatusFailed:      "فشل الاتصال",
		StatusTimedOut:    "انتهت مهلة الاستجابة",
		StatusSaved:       "تم الحفظ في %s",
		SearchResults:     "%d نتيجة",
		NoResults:         "لا توجد نتائج",
		ConfirmClear:      "هل أنت متأكد من مسح جميع المحادثات؟ (y/n)",
	},
	English: {
		NewChatTitle:      "New chat",
		ChatFallbackTitle: "Chat",
		ConnectionError:   "A connection error occurred",
		ExportDate:        "Date",
		YouLabel:          "👤 You",
		AssistantLabel:    "🤖 Assistant",
		JustNow:           "just now",
		MinutesAgo:        "%d min ago",
		HoursAgo:          "%d h ago",
		NoMessages:        "No messages yet. Type something to start chatting.",
		NoHistory:         "No previous chats",
		InputPlaceholder:  "Type a message...",
		StatusReady:       "Ready",
		StatusStreaming:   "Typing...",
		StatusCancelled:   "Stopped",
		StatusCopied:      "Copied",
		NothingToExport:   "No messages to export",
		HistoryHeader:     "Chats",
		EnterMessage:      "Please enter a message",
		ServerError:       "Error: %s",
		StatusFailed:      "Connection failed",
		StatusTimedOut:    "The reply timed out",
		StatusSaved:       "Saved to %s",
		SearchResults:     "%d results",
		NoResults:         "No results",
		ConfirmClear:      "Delete all chats? (y/n)",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})

// Match picks the closest supported language for the given preferences,
// e.g. "ar-SA", "en_US.UTF-8" or "fr".
func Match(prefs ...string) Lang {
	var tags []language.Tag
	for _, p := range prefs {
		p = normalizeLocale(p)
		if p == "" {
			continue
		}
		tag, err := language.Parse(p)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return Default
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Arabic
}

// MatchHeader picks a language from an HTTP Accept-Language value.
func MatchHeader(accept string) Lang {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Arabic
}

// normalizeLocale strips POSIX encoding/modifier suffixes.
func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

// Catalog translates keys for one language.
type Catalog struct {
	lang Lang
}

// New returns the catalog for lang, falling back to Default.
func New(lang Lang) Catalog {
	if _, ok := catalogs[lang]; !ok {
		lang = Default
	}
	return Catalog{lang: lang}
}

// Lang returns the catalog language.
func (c Catalog) Lang() Lang {
	if c.lang == "" {
		return Default
	}
	return c.lang
}

// RTL reports whether the language is written right to left.
func (c Catalog) RTL() bool {
	return c.Lang() == Arabic
}

// T returns the translation for key.
func (c Catalog) T(key Key) string {
	if s, ok := catalogs[c.Lang()][key]; ok {
		return s
	}
	return string(key)
}

// Tf formats the translation for key with args.
func (c Catalog) Tf(key Key, args ...any) string {
	return fmt.Sprintf(c.T(key), args...)
}

// RelativeTime renders t relative to now: just now, minutes, hours,
// and a plain date beyond a day.
func (c Catalog) RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return c.T(JustNow)
	case diff < time.Hour:
		return c.Tf(MinutesAgo, int(diff/time.Minute))
	case diff < 24*time.Hour:
		return c.Tf(HoursAgo, int(diff/time.Hour))
	}
	return c.Date(t)
}

// Date renders the calendar date of t.
func (c Catalog) Date(t time.Time) string {
	if c.Lang() == Arabic {
		return t.Format("2006/01/02")
	}
	return t.Format("Jan 2, 2006")
}

// Clock renders the time of day of t.
func (c Catalog) Clock(t time.Time) string {
	return t.Format("15:04:05")
}

// IsPlaceholderTitle reports whether title is the untitled-chat
// placeholder of any supported language.
func IsPlaceholderTitle(title string) bool {
	if strings.TrimSpace(title) == "" {
		return true
	}
	for _, strs := range catalogs {
		if title == strs[NewChatTitle] {
			return true
		}
	}
	return false
}
