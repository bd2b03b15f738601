package p4

import "strings"

// SpecAddressParams are the pieces of the Address line a depot spec needs to
// serve its files from object storage after migration
type SpecAddressParams struct {
	Bucket    string
	AccessKey string
	SecretKey string
	URL       string
	Region    string
	Token     string
}

// SpecAddress builds the Address value an operator adds to the depot spec
// with `p4 depot` once migration has finished, e.g.
// "s3,bucket:b,accessKey:k,secretKey:s,region:us-east-1".
func SpecAddress(p SpecAddressParams) string {
	parts := []string{
		"s3",
		"bucket:" + p.Bucket,
		"accessKey:" + p.AccessKey,
		"secretKey:" + p.SecretKey,
	}
	if p.URL != "" {
		parts = append(parts, "url:"+p.URL)
	}
	if p.Region != "" {
		parts = append(parts, "region:"+p.Region)
	}
	if p.Token != "" {
		parts = append(parts, "token:"+p.Token)
	}

	return strings.Join(parts, ",")
}
