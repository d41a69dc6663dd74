package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusSuccess.Valid())
	assert.True(t, StatusError.Valid())
	assert.False(t, FileStatus("").Valid())
	assert.False(t, FileStatus("done").Valid())
}

func TestFileState_HasDestination(t *testing.T) {
	assert.True(t, (&FileState{SchemaID: "expA", Identifier: "sample-1"}).HasDestination())
	assert.False(t, (&FileState{SchemaID: "expA"}).HasDestination())
	assert.False(t, (&FileState{Identifier: "sample-1"}).HasDestination())
	assert.False(t, (&FileState{}).HasDestination())
}
