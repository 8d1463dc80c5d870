package common

// AuthorizationHeaderName is the HTTP header carrying the admin API bearer
// token.
const AuthorizationHeaderName = "Authorization"

// BanThresholdDefault is the number of consecutive failed link attempts
// after which a user is permanently banned.
const BanThresholdDefault = 5
