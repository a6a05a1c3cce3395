// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// hashDomain separates ballot digests from any other SHA-256 use.
const hashDomain = "votelink/ballot/v1"

// IntegrityHash computes the tamper-evident receipt of a ballot. Fields are
// NUL separated so that no two inputs share an encoding; castAt enters as
// unix milliseconds.
func IntegrityHash(voterID, electionID, candidateID string, castAt time.Time) string {
	h := sha256.New()
	for i, part := range []string{
		hashDomain,
		voterID,
		electionID,
		candidateID,
		strconv.FormatInt(castAt.UnixMilli(), 10),
	} {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
