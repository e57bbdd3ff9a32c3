package redisprovider

import "strings"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) userKey(uid string) string {
	return p.cfg.Prefix + ":user:" + uid
}

func (p *Provider) emailKey(email string) string {
	return p.cfg.Prefix + ":email:" + email
}

func (p *Provider) profileKey(uid string) string {
	return p.cfg.Prefix + ":profile:" + uid
}

func (p *Provider) sessionKey(sid string) string {
	return p.cfg.Prefix + ":session:" + sid
}
