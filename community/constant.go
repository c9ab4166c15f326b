package community

const (
	baseUrl = "https://steamcommunity.com"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

const (
	cookieSessionID = "sessionid"
	cookieLanguage  = "Steam_Language"
	cookieTimezone  = "timezoneOffset"
)
