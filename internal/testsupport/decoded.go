package testsupport

import "testing"

// TestCertificatePEM is a syntactically valid PEM block for tests that only
// copy the certificate around.
const TestCertificatePEM = `-----BEGIN CERTIFICATE-----
MIIBszCCAVmgAwIBAgIUQ0VSVElGSUNBVEVGT1JURVNUSU5HMAoGCCqGSM49BAMC
-----END CERTIFICATE-----
`

// Manifest is a minimal decoded AndroidManifest.xml.
const Manifest = `<?xml version="1.0" encoding="utf-8" standalone="no"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.app">
    <uses-permission android:name="android.permission.INTERNET"/>
    <application android:allowBackup="true" android:label="@string/app_name">
        <activity android:name=".MainActivity"/>
    </application>
</manifest>
`

// Metadata is a decoded apktool.yml.
const Metadata = `!!brut.androlib.meta.MetaInfo
apkFileName: example.apk
sdkInfo:
  minSdkVersion: '24'
  targetSdkVersion: '33'
versionInfo:
  versionCode: '7'
  versionName: 1.0.7
`

// TrustManagerSmali is a class implementing X509TrustManager whose checks
// throw, the way pinning implementations typically do.
const TrustManagerSmali = `.class public final Lcom/example/net/PinningTrustManager;
.super Ljava/lang/Object;
.source "PinningTrustManager.java"

# interfaces
.implements Ljavax/net/ssl/X509TrustManager;


# virtual methods
.method public checkClientTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V
    .registers 4

    new-instance v0, Ljava/security/cert/CertificateException;
    invoke-direct {v0}, Ljava/security/cert/CertificateException;-><init>()V
    throw v0
.end method

.method public checkServerTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V
    .registers 5

    new-instance v0, Ljava/security/cert/CertificateException;
    const-string v1, "pin mismatch"
    invoke-direct {v0, v1}, Ljava/security/cert/CertificateException;-><init>(Ljava/lang/String;)V
    throw v0
.end method

.method public getAcceptedIssuers()[Ljava/security/cert/X509Certificate;
    .registers 2

    const/4 v0, 0x0
    return-object v0
.end method
`

// PlainSmali is a class with nothing to patch.
const PlainSmali = `.class public Lcom/example/app/MainActivity;
.super Landroid/app/Activity;

.method public constructor <init>()V
    .registers 1

    invoke-direct {p0}, Landroid/app/Activity;-><init>()V
    return-void
.end method
`

// NewDecodedTree writes a small decoded APK tree under root.
func NewDecodedTree(t testing.TB, root string) {
	t.Helper()

	WriteTree(t, root, map[string]string{
		"AndroidManifest.xml":                      Manifest,
		"apktool.yml":                              Metadata,
		"res/values/strings.xml":                   "<resources/>\n",
		"smali/com/example/app/MainActivity.smali": PlainSmali,
		"smali_classes2/com/example/net/PinningTrustManager.smali": TrustManagerSmali,
	})
}
