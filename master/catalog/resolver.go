package catalog

import (
	"strings"

	"github.com/cubefs/graphmeta/common/charset"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/proto"
)

// configResolver fills unset space properties with the configured defaults
// and validates the result. Defaults are captured once at construction.
type configResolver struct {
	defaultPartitionNum  int32
	defaultReplicaFactor int32
	maxPartitionNum      uint32
	defaultCharset       string
	defaultCollate       string

	charsets charset.Registry
}

func newConfigResolver(cfg *Config, registry charset.Registry) *configResolver {
	maxPartitionNum := uint32(defaultMaxPartitionNum)
	if cfg.MaxPartitionNum > 0 {
		maxPartitionNum = uint32(cfg.MaxPartitionNum)
	}
	return &configResolver{
		defaultPartitionNum:  cfg.DefaultPartitionNum,
		maxPartitionNum:      maxPartitionNum,
		defaultReplicaFactor: cfg.DefaultReplicaFactor,
		defaultCharset:       strings.ToLower(cfg.DefaultCharset),
		defaultCollate:       strings.ToLower(cfg.DefaultCollate),
		charsets:             registry,
	}
}

// Resolve returns a copy of props with every unset field resolved.
// Charset and collate are defaulted only when both are unset. The partition
// number is bounded by maxPartitionNum whether supplied or defaulted.
func (r *configResolver) Resolve(props proto.SpaceProperties) (proto.SpaceProperties, error) {
	if props.PartitionNum == 0 {
		if r.defaultPartitionNum <= 0 {
			return props, apierrors.ErrInvalidPartitionNum
		}
		props.PartitionNum = uint32(r.defaultPartitionNum)
	}
	if props.PartitionNum > r.maxPartitionNum {
		return props, apierrors.ErrInvalidPartitionNum
	}
	if props.ReplicaFactor == 0 {
		if r.defaultReplicaFactor <= 0 {
			return props, apierrors.ErrInvalidReplicaFactor
		}
		props.ReplicaFactor = uint32(r.defaultReplicaFactor)
	}

	if props.CharsetName == "" && props.CollateName == "" {
		props.CharsetName = r.defaultCharset
		props.CollateName = r.defaultCollate
	}
	if props.CharsetName != "" && !r.charsets.IsSupportedCharset(props.CharsetName) {
		return props, apierrors.ErrInvalidCharset
	}
	if props.CollateName != "" && !r.charsets.IsSupportedCollate(props.CollateName) {
		return props, apierrors.ErrInvalidCollate
	}
	if props.CharsetName != "" && props.CollateName != "" &&
		!r.charsets.CharsetCollateMatch(props.CharsetName, props.CollateName) {
		return props, apierrors.ErrCharsetCollateNotMatch
	}
	return props, nil
}
