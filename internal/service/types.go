package service

// encryptRequest is the JSON body for POST /v1/encrypt.
type encryptRequest struct {
	SenderPrivate     string   `json:"sender_private"`
	Recipients        []string `json:"recipients"`
	MessageBase64     string   `json:"message_base64"`
	ChunkSize         int      `json:"chunk_size"`
	MajorVersion      int      `json:"major_version"`
	VisibleRecipients bool     `json:"visible_recipients"`
}

type encryptResponse struct {
	CiphertextBase64 string `json:"ciphertext_base64"`
}

// decryptRequest is the JSON body for POST /v1/decrypt.
type decryptRequest struct {
	RecipientPrivate string `json:"recipient_private"`
	CiphertextBase64 string `json:"ciphertext_base64"`
}

type decryptResponse struct {
	MessageBase64 string `json:"message_base64"`
}

// errorResponse is returned for any request that fails validation or that
// the saltpack core rejects.
type errorResponse struct {
	Error string `json:"error"`
}
