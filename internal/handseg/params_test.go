package handseg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		wantErr bool
	}{
		{name: "defaults", modify: func(p *Params) {}},
		{name: "zero tolerance", modify: func(p *Params) { p.Tolerance = 0 }},
		{name: "zero display scale", modify: func(p *Params) { p.DisplayScale = 0 }, wantErr: true},
		{name: "negative display scale", modify: func(p *Params) { p.DisplayScale = -1 }, wantErr: true},
		{name: "negative min defect depth", modify: func(p *Params) { p.MinDefectDepth = -1 }, wantErr: true},
		{name: "even blur size", modify: func(p *Params) { p.BlurSize = 4 }, wantErr: true},
		{name: "zero blur size", modify: func(p *Params) { p.BlurSize = 0 }, wantErr: true},
		{name: "blur disabled", modify: func(p *Params) { p.BlurSize = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)

			err := p.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParams_MinDefectDepthPixels(t *testing.T) {
	p := DefaultParams()
	assert.InDelta(t, 6.640625, p.MinDefectDepthPixels(), 1e-9)
}
