package hcs

import "encoding/json"

// Schema v2 document types. Field names follow the HCS JSON schema; only the
// parts efivm configures are modelled.

// Version is a schema version.
type Version struct {
	Major int32 `json:"Major"`
	Minor int32 `json:"Minor"`
}

// SchemaVersion19H1 is schema 2.1, the first version with UEFI VmbFs boot.
func SchemaVersion19H1() Version {
	return Version{Major: 2, Minor: 1}
}

// ComputeSystem is the top-level document passed to HcsCreateComputeSystem.
type ComputeSystem struct {
	Owner                             string          `json:"Owner,omitempty"`
	SchemaVersion                     Version         `json:"SchemaVersion"`
	VirtualMachine                    *VirtualMachine `json:"VirtualMachine,omitempty"`
	ShouldTerminateOnLastHandleClosed bool            `json:"ShouldTerminateOnLastHandleClosed,omitempty"`
}

// VirtualMachine describes the hardware of a VM.
type VirtualMachine struct {
	StopOnReset     bool     `json:"StopOnReset,omitempty"`
	Chipset         Chipset  `json:"Chipset"`
	ComputeTopology Topology `json:"ComputeTopology"`
	Devices         Devices  `json:"Devices"`
}

// Chipset holds the firmware configuration.
type Chipset struct {
	Uefi *Uefi `json:"Uefi,omitempty"`
}

// SerialConsole selects where UEFI writes its console.
type SerialConsole string

const (
	SerialConsoleDefault  SerialConsole = "Default"
	SerialConsoleComPort1 SerialConsole = "ComPort1"
	SerialConsoleComPort2 SerialConsole = "ComPort2"
)

// Uefi configures the UEFI firmware: what it boots and where its console goes.
type Uefi struct {
	EnableDebugger       bool           `json:"EnableDebugger,omitempty"`
	SecureBootTemplateID string         `json:"SecureBootTemplateId,omitempty"`
	BootThis             *UefiBootEntry `json:"BootThis,omitempty"`
	Console              SerialConsole  `json:"Console,omitempty"`
	StopOnBootFailure    bool           `json:"StopOnBootFailure,omitempty"`
}

// UefiBootDevice is the device class UEFI boots from.
type UefiBootDevice string

const (
	UefiBootDeviceScsiDrive UefiBootDevice = "ScsiDrive"
	UefiBootDeviceVmbFs     UefiBootDevice = "VmbFs"
	UefiBootDeviceNetwork   UefiBootDevice = "Network"
	UefiBootDeviceFile      UefiBootDevice = "File"
)

// UefiBootEntry names the device and path UEFI boots first.
type UefiBootEntry struct {
	DeviceType    UefiBootDevice `json:"DeviceType"`
	DevicePath    string         `json:"DevicePath,omitempty"`
	DiskNumber    int32          `json:"DiskNumber"`
	OptionalData  string         `json:"OptionalData,omitempty"`
	VmbFsRootPath string         `json:"VmbFsRootPath,omitempty"`
}

// Topology is the VM's memory and processor allocation.
type Topology struct {
	Memory    Memory    `json:"Memory"`
	Processor Processor `json:"Processor"`
}

// Memory is the guest RAM size.
type Memory struct {
	SizeInMB        uint64 `json:"SizeInMB"`
	AllowOvercommit bool   `json:"AllowOvercommit,omitempty"`
}

// Processor is the virtual processor allocation.
type Processor struct {
	Count                          uint32 `json:"Count"`
	Limit                          uint64 `json:"Limit,omitempty"`
	Weight                         uint64 `json:"Weight,omitempty"`
	ExposeVirtualizationExtensions bool   `json:"ExposeVirtualizationExtensions,omitempty"`
}

// Devices lists the virtual hardware attached to the VM.
type Devices struct {
	// ComPorts is keyed by port number, "0" being COM1.
	ComPorts map[string]ComPort `json:"ComPorts,omitempty"`
	// Scsi is keyed by controller name.
	Scsi       map[string]Scsi `json:"Scsi,omitempty"`
	VirtualSmb *VirtualSmb     `json:"VirtualSmb,omitempty"`
}

// ComPort binds a guest serial port to a host named pipe.
type ComPort struct {
	NamedPipe           string `json:"NamedPipe,omitempty"`
	OptimizeForDebugger bool   `json:"OptimizeForDebugger,omitempty"`
}

// Scsi is one SCSI controller.
type Scsi struct {
	// Attachments is keyed by LUN.
	Attachments map[string]Attachment `json:"Attachments,omitempty"`
}

// AttachmentType is the kind of backing image behind a SCSI attachment.
type AttachmentType string

const (
	AttachmentVirtualDisk AttachmentType = "VirtualDisk"
	AttachmentIso         AttachmentType = "Iso"
	AttachmentPassThru    AttachmentType = "PassThru"
)

// Attachment is a disk image on a SCSI LUN.
type Attachment struct {
	Type     AttachmentType `json:"Type"`
	Path     string         `json:"Path,omitempty"`
	ReadOnly bool           `json:"ReadOnly,omitempty"`
}

// VirtualSmb exposes host folders to the guest over VMBus SMB.
type VirtualSmb struct {
	Shares                []VirtualSmbShare `json:"Shares,omitempty"`
	DirectFileMappingInMB int64             `json:"DirectFileMappingInMB,omitempty"`
}

// VirtualSmbShare is one exposed host folder.
type VirtualSmbShare struct {
	Name         string                 `json:"Name,omitempty"`
	Path         string                 `json:"Path,omitempty"`
	AllowedFiles []string               `json:"AllowedFiles,omitempty"`
	Options      VirtualSmbShareOptions `json:"Options"`
}

// VirtualSmbShareOptions controls access to a VirtualSmbShare.
type VirtualSmbShareOptions struct {
	ReadOnly            bool `json:"ReadOnly,omitempty"`
	ShareRead           bool `json:"ShareRead,omitempty"`
	CacheIo             bool `json:"CacheIo,omitempty"`
	NoOplocks           bool `json:"NoOplocks,omitempty"`
	PseudoOplocks       bool `json:"PseudoOplocks,omitempty"`
	TakeBackupPrivilege bool `json:"TakeBackupPrivilege,omitempty"`
	SingleFileMapping   bool `json:"SingleFileMapping,omitempty"`
	RestrictFileAccess  bool `json:"RestrictFileAccess,omitempty"`
}

// Properties is the part of a properties response efivm reads.
type Properties struct {
	ID         string `json:"Id,omitempty"`
	SystemType string `json:"SystemType,omitempty"`
	RuntimeID  string `json:"RuntimeId,omitempty"`
	State      string `json:"State,omitempty"`
}

// PropertyQuery selects which property groups a properties call returns.
type PropertyQuery struct {
	PropertyTypes []string `json:"PropertyTypes"`
}

// Marshal serializes a descriptor. Map keys are emitted sorted, so the same
// descriptor always yields the same document.
func Marshal(doc *ComputeSystem) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
