package community

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

func GenerateSessionID() (string, error) {
	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateDeviceID derives a stable device id from the account name, so that
// repeated logins look like the same machine.
func GenerateDeviceID(accountName string) string {
	sum := md5.Sum([]byte(accountName))
	deviceID := fmt.Sprintf(
		"android:%x-%x-%x-%x-%x",
		sum[:2], sum[2:4], sum[4:6], sum[6:8], sum[8:10],
	)
	return deviceID
}

// SetCookies stores cookies in the client jar under their own domain, or the
// community domain when they carry none.
func SetCookies(client *http.Client, cookies []*http.Cookie) error {
	if client.Jar == nil {
		client.Jar, _ = cookiejar.New(new(cookiejar.Options))
	}

	byDomain := make(map[string][]*http.Cookie)
	for _, cookie := range cookies {
		byDomain[cookie.Domain] = append(byDomain[cookie.Domain], cookie)
	}

	for domain, cookies := range byDomain {
		u, err := cookieURL(domain)
		if err != nil {
			return err
		}
		client.Jar.SetCookies(u, cookies)
	}
	return nil
}

func cookieURL(domain string) (*url.URL, error) {
	if domain == "" {
		return url.Parse(baseUrl)
	}
	return url.Parse("https://" + domain)
}
