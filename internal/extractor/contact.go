package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/types"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+\d{1,3}[-. ]?)?(?:\(\d{3}\)|\b\d{3})[-. ]?\d{3}[-. ]?\d{4}\b`)
	linkedInPattern = regexp.MustCompile(`(?i)linkedin\.com/in/([A-Za-z0-9_-]+)`)
	gitHubPattern   = regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9-]+)`)
	locationLabel   = regexp.MustCompile(`(?im)^(?:location|address|based in)\s*:\s*(.+)$`)
)

const locationLineWindow = 15

// extractContact 邮箱、电话、LinkedIn、GitHub、所在地
func (e *Extractor) extractContact(ctx context.Context, text string) types.ContactInfo {
	var c types.ContactInfo

	c.Email = emailPattern.FindString(text)

	// 先去掉邮箱和链接，避免其中的数字被当成电话
	phoneText := emailPattern.ReplaceAllString(text, " ")
	if phone := strings.TrimSpace(phonePattern.FindString(phoneText)); phone != "" {
		c.Phone = phone
		c.PhoneE164 = e.normalizePhone(phone)
	}

	if g := linkedInPattern.FindStringSubmatch(text); g != nil {
		c.LinkedIn = "linkedin.com/in/" + g[1]
	}
	if g := gitHubPattern.FindStringSubmatch(text); g != nil {
		c.GitHub = "github.com/" + g[1]
	}

	c.Location = e.extractLocation(ctx, text)
	return c
}

// normalizePhone 转为E.164格式，解析失败返回空
func (e *Extractor) normalizePhone(phone string) string {
	num, err := phonenumbers.Parse(phone, e.phoneRegion)
	if err != nil {
		e.log.Debug().Err(err).Msg("电话号码无法规范化")
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func (e *Extractor) extractLocation(ctx context.Context, text string) string {
	head := strings.Join(headLines(nonEmptyLines(text), locationLineWindow), "\n")

	attempt := firstSuccess([]strategy[string]{
		{name: "label", run: func() Attempt[string] {
			if g := locationLabel.FindStringSubmatch(text); g != nil {
				if v := strings.TrimSpace(g[1]); v != "" {
					return Success("label", v)
				}
			}
			return NoMatch[string]("label")
		}},
		{name: "pattern", run: func() Attempt[string] {
			if spans := nlp.MatchLocations(head); len(spans) > 0 {
				return Success("pattern", spans[0].Text)
			}
			return NoMatch[string]("pattern")
		}},
		{name: "model", run: func() Attempt[string] {
			if spans := e.model.locations(ctx, head); len(spans) > 0 {
				return Success("model", spans[0].Text)
			}
			return NoMatch[string]("model")
		}},
	})
	return attempt.Value
}
