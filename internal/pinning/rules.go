package pinning

import (
	"regexp"
	"strings"
)

type returnKind int

const (
	returnVoid returnKind = iota
	returnEmptyCertificates
)

const certificateArray = "[Ljava/security/cert/X509Certificate;"

type methodTarget struct {
	name       string
	returnType string
	kind       returnKind
}

type classRule struct {
	name    string
	applies func(src string) bool
	methods []methodTarget
}

var okHTTPPinnerClass = regexp.MustCompile(`(?m)^\.class\b.*\sLokhttp3/CertificatePinner;\s*$`)

var rules = []classRule{
	{
		name: "X509TrustManager",
		applies: func(src string) bool {
			return strings.Contains(src, ".implements Ljavax/net/ssl/X509TrustManager;")
		},
		methods: []methodTarget{
			{name: "checkClientTrusted", returnType: "V", kind: returnVoid},
			{name: "checkServerTrusted", returnType: "V", kind: returnVoid},
			{name: "getAcceptedIssuers", returnType: certificateArray, kind: returnEmptyCertificates},
		},
	},
	{
		name:    "OkHttp CertificatePinner",
		applies: okHTTPPinnerClass.MatchString,
		methods: []methodTarget{
			{name: "check", returnType: "V", kind: returnVoid},
			{name: "check$okhttp", returnType: "V", kind: returnVoid},
		},
	},
}
