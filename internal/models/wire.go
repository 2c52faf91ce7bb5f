package models

import (
	"time"

	"github.com/dmitrijs2005/afterlight/internal/codec"
)

// VaultDTO is the JSON form of a vault.
type VaultDTO struct {
	ID        string    `json:"id"`
	VaultName string    `json:"vault_name"`
	KDFSalt   string    `json:"kdf_salt"`
	Hint      string    `json:"hint,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateVaultRequest is the body of POST /vaults.
type CreateVaultRequest struct {
	VaultName string `json:"vault_name"`
	KDFSalt   string `json:"kdf_salt"`
	Hint      string `json:"hint,omitempty"`
}

// ArtifactDTO is the JSON form of an artifact.
type ArtifactDTO struct {
	ID            string    `json:"id"`
	VaultID       string    `json:"vault_id"`
	MessageType   string    `json:"message_type"`
	EncryptedBlob string    `json:"encrypted_blob"`
	IV            string    `json:"iv"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateArtifactRequest is the body of POST /vaults/{id}/artifacts.
type CreateArtifactRequest struct {
	MessageType   string `json:"message_type"`
	EncryptedBlob string `json:"encrypted_blob"`
	IV            string `json:"iv"`
}

// ListArtifactsResponse is returned by GET /vaults/{id}/artifacts. It carries
// the vault salt so a client can unlock the vault from this response alone.
type ListArtifactsResponse struct {
	VaultName string        `json:"vault_name"`
	Hint      string        `json:"hint,omitempty"`
	KDFSalt   string        `json:"kdf_salt"`
	Artifacts []ArtifactDTO `json:"artifacts"`
	CreatedAt time.Time     `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AccountResponse describes the signed-in account.
type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type SaltResponse struct {
	Salt string `json:"salt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Verifier string `json:"verifier"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UploadURLResponse is returned by POST /vaults/{id}/objects.
type UploadURLResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadURLResponse is returned by GET /vaults/{id}/objects.
type DownloadURLResponse struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ToVaultDTO renders v for the wire.
func ToVaultDTO(v *Vault) VaultDTO {
	return VaultDTO{
		ID:        v.ID,
		VaultName: v.Name,
		KDFSalt:   codec.EncodeSalt(v.Salt),
		Hint:      v.Hint,
		CreatedAt: v.CreatedAt,
	}
}

// FromVaultDTO parses a wire vault, rejecting a malformed salt.
func FromVaultDTO(d VaultDTO) (*Vault, error) {
	salt, err := codec.DecodeSalt(d.KDFSalt)
	if err != nil {
		return nil, err
	}
	return &Vault{
		ID:        d.ID,
		Name:      d.VaultName,
		Salt:      salt,
		Hint:      d.Hint,
		CreatedAt: d.CreatedAt,
	}, nil
}

// ToArtifactDTO renders a for the wire.
func ToArtifactDTO(a *Artifact) ArtifactDTO {
	return ArtifactDTO{
		ID:            a.ID,
		VaultID:       a.VaultID,
		MessageType:   a.MessageType.String(),
		EncryptedBlob: codec.EncodeBlob(a.Blob),
		IV:            codec.EncodeNonce(a.IV),
		CreatedAt:     a.CreatedAt,
	}
}

// FromArtifactDTO strictly decodes a wire artifact.
func FromArtifactDTO(d ArtifactDTO) (*Artifact, error) {
	mt, blob, iv, err := d.sealed()
	if err != nil {
		return nil, err
	}
	return &Artifact{
		ID:          d.ID,
		VaultID:     d.VaultID,
		MessageType: mt,
		Blob:        blob,
		IV:          iv,
		CreatedAt:   d.CreatedAt,
	}, nil
}

func (d ArtifactDTO) sealed() (MessageType, []byte, []byte, error) {
	return CreateArtifactRequest{MessageType: d.MessageType, EncryptedBlob: d.EncryptedBlob, IV: d.IV}.Decode()
}

// Decode strictly parses the request fields and applies ValidateSealed.
func (r CreateArtifactRequest) Decode() (MessageType, []byte, []byte, error) {
	mt, err := ParseMessageType(r.MessageType)
	if err != nil {
		return "", nil, nil, err
	}
	iv, err := codec.DecodeNonce(r.IV)
	if err != nil {
		return "", nil, nil, err
	}
	blob, err := codec.DecodeBlob(r.EncryptedBlob)
	if err != nil {
		return "", nil, nil, err
	}
	if err := ValidateSealed(blob, iv); err != nil {
		return "", nil, nil, err
	}
	return mt, blob, iv, nil
}

// NewCreateArtifactRequest encodes sealed output for transmission.
func NewCreateArtifactRequest(mt MessageType, blob, iv []byte) CreateArtifactRequest {
	return CreateArtifactRequest{
		MessageType:   mt.String(),
		EncryptedBlob: codec.EncodeBlob(blob),
		IV:            codec.EncodeNonce(iv),
	}
}
