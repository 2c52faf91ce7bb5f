package models

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVaultName(t *testing.T) {
	got, err := NormalizeVaultName("  Personal  ")
	require.NoError(t, err)
	assert.Equal(t, "Personal", got)

	_, err = NormalizeVaultName("   ")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = NormalizeVaultName(strings.Repeat("ж", MaxVaultNameLen))
	assert.NoError(t, err, "limit counts runes, not bytes")

	_, err = NormalizeVaultName(strings.Repeat("x", MaxVaultNameLen+1))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestValidateHint(t *testing.T) {
	assert.NoError(t, ValidateHint(""))
	assert.NoError(t, ValidateHint(strings.Repeat("h", MaxHintLen)))
	assert.ErrorIs(t, ValidateHint(strings.Repeat("h", MaxHintLen+1)), common.ErrorValidation)
}

func TestValidateSealed(t *testing.T) {
	iv := make([]byte, cryptox.NonceSize)

	assert.NoError(t, ValidateSealed(make([]byte, cryptox.TagSize), iv))
	assert.NoError(t, ValidateSealed(make([]byte, MaxBlobSize), iv))
	assert.ErrorIs(t, ValidateSealed(make([]byte, cryptox.TagSize-1), iv), common.ErrorValidation)
	assert.ErrorIs(t, ValidateSealed(make([]byte, MaxBlobSize+1), iv), common.ErrorValidation)
	assert.ErrorIs(t, ValidateSealed(make([]byte, 32), iv[:8]), common.ErrorValidation)
}

func TestParseMessageType(t *testing.T) {
	mt, err := ParseMessageType("TEXT_MESSAGE")
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, mt)

	mt, err = ParseMessageType("S3_OBJECT_LINK")
	require.NoError(t, err)
	assert.Equal(t, MessageTypeS3Object, mt)

	for _, s := range []string{"", "text_message", "FILE"} {
		_, err := ParseMessageType(s)
		assert.ErrorIs(t, err, common.ErrorValidation, s)
	}
}

func TestPayload_Text(t *testing.T) {
	mt, b, err := EncodePayload(TextMessage{Text: "my seed phrase"})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, mt)
	assert.Equal(t, "my seed phrase", string(b))

	p, err := DecodePayload(mt, b)
	require.NoError(t, err)
	assert.Equal(t, TextMessage{Text: "my seed phrase"}, p)

	_, err = DecodePayload(MessageTypeText, []byte{0xff, 0xfe})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPayload_ObjectLink(t *testing.T) {
	link := ObjectLink{ObjectKey: "vaults/v1/2026/01/02/abc", FileName: "id.png", Size: 42, Nonce: []byte{1, 2, 3}}
	mt, b, err := EncodePayload(link)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeS3Object, mt)

	p, err := DecodePayload(mt, b)
	require.NoError(t, err)
	assert.Equal(t, link, p)
	assert.Equal(t, MessageTypeS3Object, p.MessageType())

	_, err = DecodePayload(MessageTypeS3Object, []byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodePayload(MessageTypeS3Object, []byte(`{"file_name":"x"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPayload_Unknown(t *testing.T) {
	_, err := DecodePayload(MessageType("OTHER"), []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownPayload)

	_, _, err = EncodePayload(nil)
	assert.ErrorIs(t, err, ErrUnknownPayload)
}

func TestVaultDTO_RoundTrip(t *testing.T) {
	salt, err := cryptox.NewSalt()
	require.NoError(t, err)
	v := &Vault{ID: "id-1", Name: "Personal", Salt: salt, Hint: "blue", CreatedAt: time.Unix(100, 0).UTC()}

	got, err := FromVaultDTO(ToVaultDTO(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	d := ToVaultDTO(v)
	d.KDFSalt = "abcd"
	_, err = FromVaultDTO(d)
	assert.ErrorIs(t, err, common.ErrMalformedEncoding)
}

func TestArtifactDTO_RoundTrip(t *testing.T) {
	a := &Artifact{
		ID:          "a1",
		VaultID:     "v1",
		MessageType: MessageTypeText,
		Blob:        make([]byte, 40),
		IV:          make([]byte, cryptox.NonceSize),
		CreatedAt:   time.Unix(200, 0).UTC(),
	}
	got, err := FromArtifactDTO(ToArtifactDTO(a))
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestCreateArtifactRequest_Decode(t *testing.T) {
	req := NewCreateArtifactRequest(MessageTypeText, make([]byte, 20), make([]byte, cryptox.NonceSize))
	mt, blob, iv, err := req.Decode()
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, mt)
	assert.Len(t, blob, 20)
	assert.Len(t, iv, cryptox.NonceSize)

	bad := req
	bad.IV = strings.ToUpper("0a0b0c0d0e0f0a0b0c0d0e0f")
	_, _, _, err = bad.Decode()
	assert.ErrorIs(t, err, common.ErrMalformedEncoding)

	bad = req
	bad.EncryptedBlob = "QUJD\nREVG"
	_, _, _, err = bad.Decode()
	assert.ErrorIs(t, err, common.ErrMalformedEncoding)

	bad = req
	bad.MessageType = "nope"
	_, _, _, err = bad.Decode()
	assert.ErrorIs(t, err, common.ErrorValidation)

	short := NewCreateArtifactRequest(MessageTypeText, make([]byte, 4), make([]byte, cryptox.NonceSize))
	_, _, _, err = short.Decode()
	assert.ErrorIs(t, err, common.ErrorValidation)
}
