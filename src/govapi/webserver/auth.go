package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/data"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

type Auth struct {
	rdb       *redis.Client
	jwtSecret []byte
	db        *gorm.DB
}

func NewAuth(rdb *redis.Client, secret []byte, db *gorm.DB) Auth {
	return Auth{rdb: rdb, jwtSecret: secret, db: db}
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required,min=32,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !isValidWalletAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid address format"})
		return
	}

	// Wallets expect raw hex data for signRaw, so the nonce is 32 bytes hex.
	nonce, err := randomHex32()
	if err != nil {
		log.Printf("Failed to create nonce: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	if err := data.SetNonce(c, a.rdb, req.Address, nonce); err != nil {
		log.Printf("Failed to set nonce for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !isValidWalletAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid address format"})
		return
	}

	nonce, err := data.GetNonce(c, a.rdb, req.Address)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired or not found"})
		return
	}

	if err := verifySignature(req.Address, req.Signature, nonce); err != nil {
		log.Printf("Signature verification failed for %s: %v", req.Address, err)
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	data.DelNonce(c, a.rdb, req.Address)

	var member types.Member
	admin := false
	if err := a.db.First(&member, "address = ?", req.Address).Error; err == nil {
		admin = member.IsAdmin
	}

	token, err := issueJWT(req.Address, admin, a.jwtSecret)
	if err != nil {
		log.Printf("Failed to issue JWT for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func isValidWalletAddress(addr string) bool {
	if strings.HasPrefix(addr, "0x") {
		hexStr := strings.TrimPrefix(addr, "0x")
		if len(hexStr) != 64 {
			return false
		}
		_, err := hex.DecodeString(hexStr)
		return err == nil
	}
	if len(addr) < 46 || len(addr) > 52 {
		return false
	}
	validChars := "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	for _, char := range addr {
		if !strings.ContainsRune(validChars, char) {
			return false
		}
	}
	return true
}
