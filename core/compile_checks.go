package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ RemoteProcessor = RemoteProcessorFunc(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ LogEvent        = FailureEvent{}
	_ error           = (*CardManagementError)(nil)
	_ error           = (*ProvisioningExtensionError)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
